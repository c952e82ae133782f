package profile

import "testing"

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	p, ok, err := s.Get("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no profile for unknown session")
	}
	if !p.IsZero() {
		t.Errorf("expected zero profile, got %+v", p)
	}
}

func TestMemoryStore_PutReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	in := Profile{
		SessionID:        "s1",
		BusinessName:     "Green Acres",
		OptionalAdvisors: []string{"legal"},
		Records: &RecordSnapshot{
			Columns: []string{"crop", "acres"},
			Preview: []map[string]string{{"crop": "corn", "acres": "120"}},
		},
	}
	if err := s.Put(in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get("s1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}

	// Mutating the returned profile must not affect stored state.
	got.OptionalAdvisors[0] = "tampered"
	got.Records.Preview[0]["crop"] = "tampered"

	again, _, _ := s.Get("s1")
	if again.OptionalAdvisors[0] != "legal" {
		t.Error("stored optional advisors were mutated through returned copy")
	}
	if again.Records.Preview[0]["crop"] != "corn" {
		t.Error("stored record preview was mutated through returned copy")
	}
}

func TestSave_PreservesRecordsAndNotes(t *testing.T) {
	s := NewMemoryStore()
	snap := &RecordSnapshot{Summary: "2 records", RowCount: 2}
	if err := AttachRecords(s, "s1", snap); err != nil {
		t.Fatalf("attach records: %v", err)
	}
	if err := AttachDocumentNotes(s, "s1", "lease terms"); err != nil {
		t.Fatalf("attach notes: %v", err)
	}

	if err := Save(s, Profile{SessionID: "s1", BusinessName: "Green Acres", State: "Iowa"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	p, ok, _ := s.Get("s1")
	if !ok {
		t.Fatal("profile missing after save")
	}
	if p.BusinessName != "Green Acres" || p.State != "Iowa" {
		t.Errorf("attributes not saved: %+v", p)
	}
	if p.Records == nil || p.Records.Summary != "2 records" {
		t.Error("record snapshot clobbered by profile save")
	}
	if p.DocumentNotes != "lease terms" {
		t.Error("document notes clobbered by profile save")
	}
}

func TestAttachRecords_CreatesProfile(t *testing.T) {
	s := NewMemoryStore()
	if err := AttachRecords(s, "fresh", &RecordSnapshot{RowCount: 1}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	p, ok, _ := s.Get("fresh")
	if !ok || p.SessionID != "fresh" || p.Records == nil {
		t.Errorf("expected profile created with snapshot, got ok=%v %+v", ok, p)
	}
}

func TestDelete_RemovesProfile(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put(Profile{SessionID: "s1", BusinessName: "Green Acres"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.Delete("s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get("s1"); ok {
		t.Error("profile still present after delete")
	}

	// Deleting a missing profile is fine.
	if err := s.Delete("nobody"); err != nil {
		t.Errorf("delete of missing profile: %v", err)
	}
}
