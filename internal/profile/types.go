package profile

// Profile holds the business context a session has shared, used to
// personalize advisor prompts. The zero value is a valid empty profile.
type Profile struct {
	SessionID    string `json:"session_id"`
	BusinessName string `json:"business_name"`
	State        string `json:"state"`
	BusinessType string `json:"business_type"`
	Description  string `json:"description"`

	// OptionalAdvisors are the optional advisor ids this session opted into.
	OptionalAdvisors []string `json:"optional_advisors,omitempty"`

	// Records is a bounded snapshot of uploaded tabular business records.
	Records *RecordSnapshot `json:"records,omitempty"`

	// DocumentNotes is text extracted from an uploaded business document.
	DocumentNotes string `json:"document_notes,omitempty"`
}

// RecordSnapshot is the prompt-sized view of an uploaded records file.
type RecordSnapshot struct {
	Summary  string              `json:"summary"`
	Columns  []string            `json:"columns"`
	Preview  []map[string]string `json:"preview"`
	RowCount int                 `json:"row_count"`
}

// IsZero reports whether the profile carries no business context at all.
func (p Profile) IsZero() bool {
	return p.BusinessName == "" && p.State == "" && p.BusinessType == "" &&
		p.Description == "" && len(p.OptionalAdvisors) == 0 &&
		p.Records == nil && p.DocumentNotes == ""
}

func copyProfile(p Profile) Profile {
	cp := p
	if p.OptionalAdvisors != nil {
		cp.OptionalAdvisors = make([]string, len(p.OptionalAdvisors))
		copy(cp.OptionalAdvisors, p.OptionalAdvisors)
	}
	if p.Records != nil {
		cp.Records = copySnapshot(p.Records)
	}
	return cp
}

func copySnapshot(s *RecordSnapshot) *RecordSnapshot {
	cp := *s
	if s.Columns != nil {
		cp.Columns = make([]string, len(s.Columns))
		copy(cp.Columns, s.Columns)
	}
	if s.Preview != nil {
		cp.Preview = make([]map[string]string, len(s.Preview))
		for i, row := range s.Preview {
			r := make(map[string]string, len(row))
			for k, v := range row {
				r[k] = v
			}
			cp.Preview[i] = r
		}
	}
	return &cp
}
