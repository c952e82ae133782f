package history

import (
	"fmt"
	"testing"
)

func TestAppend_CapKeepsNewestTwenty(t *testing.T) {
	s := NewMemoryStore()
	key := Key("s1", "agronomist")

	for i := 0; i < 25; i++ {
		if err := s.Append(key, Turn{Role: RoleUser, Content: fmt.Sprintf("msg %d", i)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	turns, err := s.Turns(key)
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(turns) != MaxTurns {
		t.Fatalf("expected %d turns, got %d", MaxTurns, len(turns))
	}
	// Oldest surviving turn is msg 5, newest is msg 24, oldest-first.
	if turns[0].Content != "msg 5" {
		t.Errorf("expected oldest surviving turn 'msg 5', got %q", turns[0].Content)
	}
	if turns[len(turns)-1].Content != "msg 24" {
		t.Errorf("expected newest turn 'msg 24', got %q", turns[len(turns)-1].Content)
	}
}

func TestAppend_PairStaysUnderCap(t *testing.T) {
	s := NewMemoryStore()
	key := Key("s1", "financial")

	for i := 0; i < 13; i++ {
		s.Append(key,
			Turn{Role: RoleUser, Content: fmt.Sprintf("q%d", i)},
			Turn{Role: RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
	}

	turns, _ := s.Turns(key)
	if len(turns) != MaxTurns {
		t.Fatalf("expected %d turns, got %d", MaxTurns, len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "q3" {
		t.Errorf("window start wrong: %+v", turns[0])
	}
}

func TestTurns_ReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	key := Key("s1", "agronomist")
	s.Append(key, Turn{Role: RoleUser, Content: "original"})

	turns, _ := s.Turns(key)
	turns[0].Content = "tampered"

	again, _ := s.Turns(key)
	if again[0].Content != "original" {
		t.Error("stored turn mutated through returned slice")
	}
}

func TestClear_SingleKey(t *testing.T) {
	s := NewMemoryStore()
	s.Append(Key("s1", "agronomist"), Turn{Role: RoleUser, Content: "hi"})
	s.Append(Key("s1", "financial"), Turn{Role: RoleUser, Content: "hi"})

	if err := s.Clear(Key("s1", "agronomist")); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if turns, _ := s.Turns(Key("s1", "agronomist")); len(turns) != 0 {
		t.Error("cleared conversation still has turns")
	}
	if turns, _ := s.Turns(Key("s1", "financial")); len(turns) != 1 {
		t.Error("clear removed an unrelated advisor's conversation")
	}
}

func TestClearSession_RemovesAllAdvisors(t *testing.T) {
	s := NewMemoryStore()
	for _, adv := range []string{"agronomist", "financial", "legal"} {
		s.Append(Key("s1", adv), Turn{Role: RoleUser, Content: "hi"})
	}
	s.Append(Key("s2", "agronomist"), Turn{Role: RoleUser, Content: "other session"})

	if err := s.ClearSession("s1"); err != nil {
		t.Fatalf("clear session: %v", err)
	}

	for _, adv := range []string{"agronomist", "financial", "legal"} {
		if turns, _ := s.Turns(Key("s1", adv)); len(turns) != 0 {
			t.Errorf("advisor %s still has turns after session clear", adv)
		}
	}
	if turns, _ := s.Turns(Key("s2", "agronomist")); len(turns) != 1 {
		t.Error("session clear leaked into another session")
	}
}

func TestClearSession_NoPrefixConfusion(t *testing.T) {
	s := NewMemoryStore()
	s.Append(Key("abc", "agronomist"), Turn{Role: RoleUser, Content: "hi"})
	s.Append(Key("abcd", "agronomist"), Turn{Role: RoleUser, Content: "hi"})

	s.ClearSession("abc")

	if turns, _ := s.Turns(Key("abcd", "agronomist")); len(turns) != 1 {
		t.Error("session 'abc' clear removed session 'abcd' history")
	}
}
