package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestHistoryUnknownSession(t *testing.T) {
	s := NewStore()
	if got := s.History("never-created"); len(got) != 0 {
		t.Fatalf("expected empty history, got %v", got)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Ensure("s1")
	s.Append("s1", RoleUser, "hello")
	s.Ensure("s1")
	if got := s.History("s1"); len(got) != 1 {
		t.Fatalf("ensure must not clear history, got %v", got)
	}
}

func TestSessionIsolation(t *testing.T) {
	s := NewStore()
	s.Append("a", RoleUser, "for a")
	s.Append("b", RoleUser, "for b")
	s.AppendPair("a", "u", "r")

	if got := s.History("b"); len(got) != 1 || got[0].Content != "for b" {
		t.Fatalf("appends to a leaked into b: %v", got)
	}
}

func TestHistoryIsSnapshot(t *testing.T) {
	s := NewStore()
	s.Append("s1", RoleUser, "one")
	snap := s.History("s1")
	s.Append("s1", RoleAssistant, "two")
	if len(snap) != 1 {
		t.Fatalf("snapshot mutated by later append: %v", snap)
	}
}

func TestClearThenEnsure(t *testing.T) {
	s := NewStore()
	s.AppendPair("s1", "u1", "a1")
	s.AppendPair("s1", "u2", "a2")
	s.Clear("s1")
	if got := s.History("s1"); len(got) != 0 {
		t.Fatalf("expected empty history after clear, got %v", got)
	}
	s.Ensure("s1")
	if got := s.History("s1"); len(got) != 0 {
		t.Fatalf("expected empty history after ensure, got %v", got)
	}
}

func TestDeleteMatchesClear(t *testing.T) {
	s := NewStore()
	s.Append("s1", RoleUser, "x")
	s.Delete("s1")
	if got := s.History("s1"); len(got) != 0 {
		t.Fatalf("expected empty history after delete, got %v", got)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no live sessions, got %d", s.Len())
	}
}

func TestAppendPairConcurrent(t *testing.T) {
	const turns = 64
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tag := fmt.Sprintf("turn-%d", n)
			s.AppendPair("shared", "user "+tag, "assistant "+tag)
		}(i)
	}
	wg.Wait()

	history := s.History("shared")
	if len(history) != 2*turns {
		t.Fatalf("expected %d messages, got %d", 2*turns, len(history))
	}
	for i := 0; i < len(history); i += 2 {
		u, a := history[i], history[i+1]
		if u.Role != RoleUser || a.Role != RoleAssistant {
			t.Fatalf("pair at %d has roles %s/%s", i, u.Role, a.Role)
		}
		wantAssistant := "assistant" + u.Content[len("user"):]
		if a.Content != wantAssistant {
			t.Fatalf("pair at %d split: user=%q assistant=%q", i, u.Content, a.Content)
		}
	}
}

func TestConcurrentDistinctSessions(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%d", n)
			for j := 0; j < 10; j++ {
				s.AppendPair(id, "u", "a")
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("s-%d", i)
		if got := len(s.History(id)); got != 20 {
			t.Fatalf("session %s has %d messages, want 20", id, got)
		}
	}
}
