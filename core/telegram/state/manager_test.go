package state

import (
	"sync"
	"testing"
	"time"
)

func TestRecordInboundKeepsLastFive(t *testing.T) {
	s := newSession(1, time.Now())
	for id := 1; id <= 7; id++ {
		s.RecordInbound(id)
	}
	if len(s.Inbound) != InboundCapacity {
		t.Fatalf("inbound len = %d", len(s.Inbound))
	}
	if s.Inbound[0] != 3 || s.Inbound[4] != 7 {
		t.Fatalf("expected ids 3..7, got %v", s.Inbound)
	}
}

func TestTakeClearsIDs(t *testing.T) {
	s := newSession(1, time.Now())
	s.RecordInbound(10)
	s.RecordOutbound(20)
	s.RecordOutbound(21)
	if got := s.TakeInbound(); len(got) != 1 || got[0] != 10 {
		t.Fatalf("TakeInbound = %v", got)
	}
	if got := s.TakeOutbound(); len(got) != 2 {
		t.Fatalf("TakeOutbound = %v", got)
	}
	if len(s.Inbound) != 0 || len(s.Outbound) != 0 {
		t.Fatalf("ids should be cleared: %+v", s)
	}
}

func TestAcquireCreatesDefaultSession(t *testing.T) {
	m := NewManager()
	sess, release := m.Acquire(42)
	if sess.Locale != DefaultLocale || sess.HasPending() || sess.LocaleChosen {
		t.Fatalf("unexpected default session: %+v", sess)
	}
	sess.SetPending(Pending{Category: "nails", Duration: 2 * time.Hour, Price: 20})
	release()
	release()

	if !m.InProgress(42) {
		t.Fatalf("pending should be visible through InProgress")
	}
	snap, ok := m.Peek(42)
	if !ok || snap.Pending.Category != "nails" {
		t.Fatalf("peek = %+v, %v", snap, ok)
	}
	snap.Pending.Category = "changed"
	again, _ := m.Peek(42)
	if again.Pending.Category != "nails" {
		t.Fatalf("peek must return a copy")
	}
}

func TestAcquireSerialisesPerUser(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sess, release := m.Acquire(7)
			defer release()
			sess.RecordOutbound(id + 1)
		}(i)
	}
	wg.Wait()
	snap, _ := m.Peek(7)
	if len(snap.Outbound) != 50 {
		t.Fatalf("expected 50 outbound ids, got %d", len(snap.Outbound))
	}
}

func TestEvictIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(WithClock(func() time.Time { return now }))

	_, release := m.Acquire(1)
	release()
	now = now.Add(20 * time.Minute)
	_, release = m.Acquire(2)
	release()
	held, holdRelease := m.Acquire(3)
	_ = held

	now = now.Add(15 * time.Minute)
	if n := m.Evict(30 * time.Minute); n != 1 {
		t.Fatalf("evicted = %d, want 1", n)
	}
	if _, ok := m.Peek(1); ok {
		t.Fatalf("session 1 should be evicted")
	}
	holdRelease()
	if m.Len() != 2 {
		t.Fatalf("len = %d", m.Len())
	}

	sess, release := m.Acquire(1)
	if sess.LocaleChosen || len(sess.Inbound) != 0 {
		t.Fatalf("evicted user should get a fresh session")
	}
	release()
}
