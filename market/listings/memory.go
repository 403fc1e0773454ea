package listings

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/m3rciful/postbot/core/logger"
)

type memRow struct {
	Listing
	seq uint64
}

// MemoryStore keeps listings in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]memRow
	seq  uint64
	opts options
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]memRow),
		opts: buildOptions(opts),
	}
}

// Create stores a new listing stamped with the store clock.
func (s *MemoryStore) Create(ctx context.Context, n NewListing) (Listing, error) {
	if err := n.validate(); err != nil {
		return Listing{}, err
	}
	created, expires := stamp(s.opts.now(), n.Duration)
	l := Listing{
		ID:            uuid.NewString(),
		Category:      n.Category,
		Body:          n.Body,
		CreatorID:     n.CreatorID,
		CreatorHandle: n.CreatorHandle,
		CreatedAt:     created,
		ExpiresAt:     expires,
	}

	s.mu.Lock()
	s.seq++
	s.rows[l.ID] = memRow{Listing: l, seq: s.seq}
	s.mu.Unlock()

	logger.Debug(ctx, logger.CompListings, "listing.create",
		slog.String("listing_id", l.ID),
		slog.String("category", string(l.Category)),
	)
	return l, nil
}

// Get returns an active listing or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (Listing, error) {
	s.mu.RLock()
	row, ok := s.rows[id]
	s.mu.RUnlock()
	if !ok || !row.Active(s.opts.now()) {
		return Listing{}, ErrNotFound
	}
	return row.Listing, nil
}

// ListByCategory returns the active listings of one category, newest first.
func (s *MemoryStore) ListByCategory(_ context.Context, category Category) ([]Listing, error) {
	return s.collect(func(l Listing) bool { return l.Category == category }, newestFirst), nil
}

// ListAll returns every active listing, newest first.
func (s *MemoryStore) ListAll(_ context.Context) ([]Listing, error) {
	return s.collect(nil, newestFirst), nil
}

// ListByCreator returns a user's active listings, soonest expiry first.
func (s *MemoryStore) ListByCreator(_ context.Context, creatorID int64) ([]Listing, error) {
	return s.collect(func(l Listing) bool { return l.CreatorID == creatorID }, soonestExpiry), nil
}

// Delete removes the listing; unknown ids are not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.rows[id]
	delete(s.rows, id)
	s.mu.Unlock()
	if ok {
		logger.Debug(ctx, logger.CompListings, "listing.delete", slog.String("listing_id", id))
	}
	return nil
}

// PurgeExpired drops every expired listing and returns how many went.
func (s *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	now := s.opts.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, row := range s.rows {
		if !row.Active(now) {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) collect(keep func(Listing) bool, less func(a, b memRow) bool) []Listing {
	now := s.opts.now()
	s.mu.RLock()
	rows := make([]memRow, 0, len(s.rows))
	for _, row := range s.rows {
		if row.Active(now) && (keep == nil || keep(row.Listing)) {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	out := make([]Listing, len(rows))
	for i, row := range rows {
		out[i] = row.Listing
	}
	return out
}

func newestFirst(a, b memRow) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.seq > b.seq
}

func soonestExpiry(a, b memRow) bool {
	if !a.ExpiresAt.Equal(b.ExpiresAt) {
		return a.ExpiresAt.Before(b.ExpiresAt)
	}
	return a.seq < b.seq
}
