package state

import "time"

// InboundCapacity bounds how many user message ids a session remembers.
const InboundCapacity = 5

// DefaultLocale is used until the user picks a language.
const DefaultLocale = "en"

// Pending is the in-progress listing creation context.
type Pending struct {
	Category string
	Duration time.Duration
	Price    int64
}

// Session stores the transient conversation state of a single user.
type Session struct {
	UserID       int64
	Locale       string
	// LocaleChosen is false until the user picks a language after /start.
	LocaleChosen bool
	Pending      *Pending
	Inbound      []int
	Outbound     []int
	LastSeen     time.Time
}

func newSession(userID int64, now time.Time) *Session {
	return &Session{
		UserID:   userID,
		Locale:   DefaultLocale,
		Inbound:  make([]int, 0, InboundCapacity),
		LastSeen: now,
	}
}

// RecordInbound remembers a user message id; the oldest id is dropped past capacity.
func (s *Session) RecordInbound(id int) {
	if id == 0 {
		return
	}
	if len(s.Inbound) >= InboundCapacity {
		copy(s.Inbound, s.Inbound[1:])
		s.Inbound = s.Inbound[:InboundCapacity-1]
	}
	s.Inbound = append(s.Inbound, id)
}

// RecordOutbound remembers a message sent as part of the current screen.
func (s *Session) RecordOutbound(id int) {
	if id == 0 {
		return
	}
	s.Outbound = append(s.Outbound, id)
}

// TakeInbound returns the remembered inbound ids and forgets them.
func (s *Session) TakeInbound() []int {
	ids := s.Inbound
	s.Inbound = make([]int, 0, InboundCapacity)
	return ids
}

// TakeOutbound returns the current screen's message ids and forgets them.
func (s *Session) TakeOutbound() []int {
	ids := s.Outbound
	s.Outbound = nil
	return ids
}

// SetPending stashes the creation context for the next free-text message.
func (s *Session) SetPending(p Pending) {
	s.Pending = &p
}

// ClearPending drops any creation context.
func (s *Session) ClearPending() {
	s.Pending = nil
}

// HasPending reports whether a listing body is awaited.
func (s Session) HasPending() bool {
	return s.Pending != nil
}

func (s *Session) clone() Session {
	out := *s
	out.Inbound = append([]int(nil), s.Inbound...)
	out.Outbound = append([]int(nil), s.Outbound...)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}
