package dialog

import (
	"context"
	"errors"
	"sync"
	"time"
)

type sentMessage struct {
	ChatID   int64
	ID       int
	Text     string
	Keyboard Keyboard
}

type fakeTransport struct {
	mu        sync.Mutex
	nextID    int
	sent      []sentMessage
	deleted   []int
	failSends bool
	failDel   map[int]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 1000, failDel: make(map[int]bool)}
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, text string, kb Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends {
		return 0, errors.New("send failed")
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, ID: f.nextID, Text: text, Keyboard: kb})
	return f.nextID, nil
}

func (f *fakeTransport) Delete(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	if f.failDel[messageID] {
		return errors.New("message can't be deleted")
	}
	return nil
}

func (f *fakeTransport) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) sentSince(n int) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent[n:]...)
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type scheduled struct {
	ID string
	At time.Time
}

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []scheduled
}

func (s *fakeScheduler) Schedule(id string, at time.Time) {
	s.mu.Lock()
	s.tasks = append(s.tasks, scheduled{ID: id, At: at})
	s.mu.Unlock()
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// findButton returns the first button whose action matches tag.
func findButton(kb Keyboard, tag string) (Button, bool) {
	for _, row := range kb {
		for _, b := range row {
			if b.Unique == tag {
				return b, true
			}
		}
	}
	return Button{}, false
}
