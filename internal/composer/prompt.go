// Package composer builds the system instruction text sent ahead of each
// advisor conversation: the advisor's persona plus context blocks derived
// from the session's business profile.
package composer

import (
	"fmt"
	"strings"

	"github.com/griffinb3/agvisor/internal/advisor"
	"github.com/griffinb3/agvisor/internal/profile"
)

// Bounds on how much uploaded-record detail is rendered into a prompt.
const (
	maxPreviewRows = 5
	maxRowColumns  = 5
)

// Compose returns the system instruction for advisorID personalized with the
// given profile. Unknown advisor ids fall back to the default advisor's
// persona. A nil profile yields the bare persona. Pure and deterministic.
func Compose(advisorID string, p *profile.Profile) string {
	a := advisor.Lookup(advisorID)

	var sb strings.Builder
	sb.WriteString(a.Prompt)

	if p == nil {
		return sb.String()
	}

	writeBusinessContext(&sb, p)
	if p.Records != nil {
		writeRecords(&sb, p.Records)
	}
	if p.DocumentNotes != "" {
		sb.WriteString("\n\nUploaded document notes:\n")
		sb.WriteString(p.DocumentNotes)
	}
	if a.ID == advisor.LegalID && p.State != "" {
		writeJurisdiction(&sb, p)
	}

	return sb.String()
}

// writeBusinessContext appends one line per populated profile field, in fixed
// order. Empty fields are omitted entirely, never rendered blank.
func writeBusinessContext(sb *strings.Builder, p *profile.Profile) {
	var lines []string
	if p.BusinessName != "" {
		lines = append(lines, "Business name: "+p.BusinessName)
	}
	if p.BusinessType != "" {
		lines = append(lines, "Business type: "+p.BusinessType)
	}
	if p.State != "" {
		lines = append(lines, "Location: "+p.State)
	}
	if p.Description != "" {
		lines = append(lines, "About the business: "+p.Description)
	}
	if len(lines) == 0 {
		return
	}
	sb.WriteString("\n\nThe farmer you are advising has shared this business context:\n")
	sb.WriteString(strings.Join(lines, "\n"))
}

func writeRecords(sb *strings.Builder, snap *profile.RecordSnapshot) {
	sb.WriteString("\n\nThe farmer has uploaded business records. ")
	sb.WriteString(snap.Summary)
	if len(snap.Columns) > 0 {
		sb.WriteString("\nColumns: ")
		sb.WriteString(strings.Join(snap.Columns, ", "))
	}

	rows := snap.Preview
	if len(rows) > maxPreviewRows {
		rows = rows[:maxPreviewRows]
	}
	for i, row := range rows {
		sb.WriteString(fmt.Sprintf("\nRow %d: ", i+1))
		var pairs []string
		for _, col := range snap.Columns {
			if len(pairs) >= maxRowColumns {
				break
			}
			if v, ok := row[col]; ok {
				pairs = append(pairs, col+": "+v)
			}
		}
		sb.WriteString(strings.Join(pairs, ", "))
	}
}

func writeJurisdiction(sb *strings.Builder, p *profile.Profile) {
	businessType := p.BusinessType
	if businessType == "" {
		businessType = "agricultural operation"
	}
	sb.WriteString(fmt.Sprintf(
		"\n\nPay particular attention to the laws and regulations of %s as they apply to this %s. Flag any rules specific to that jurisdiction.",
		p.State, businessType,
	))
}
