// Package listings stores time-bounded classified listings.
package listings

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned for listings that never existed, were deleted, or expired.
var ErrNotFound = errors.New("listings: not found")

// ErrInvalid rejects malformed creation requests.
var ErrInvalid = errors.New("listings: invalid listing")

// Category is one of the fixed marketplace sections.
type Category string

const (
	ComputerServices Category = "computer_services"
	Massage          Category = "massage"
	CleanHouse       Category = "clean_house"
	CleanStorageArea Category = "clean_storage_area"
	Makeup           Category = "makeup"
	Nails            Category = "nails"
)

var categories = []Category{ComputerServices, Massage, CleanHouse, CleanStorageArea, Makeup, Nails}

// Categories returns all categories in menu order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory validates a category slug.
func ParseCategory(s string) (Category, bool) {
	for _, c := range categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Tier is a paid listing duration.
type Tier struct {
	Code     string
	Duration time.Duration
	Price    int64
}

var tiers = []Tier{
	{Code: "2h", Duration: 2 * time.Hour, Price: 20},
	{Code: "24h", Duration: 24 * time.Hour, Price: 50},
}

// Tiers returns the offered durations, shortest first.
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}

// TierByCode looks up a tier by its code.
func TierByCode(code string) (Tier, bool) {
	for _, t := range tiers {
		if t.Code == code {
			return t, true
		}
	}
	return Tier{}, false
}

// Listing is a published classified ad.
type Listing struct {
	ID            string
	Category      Category
	Body          string
	CreatorID     int64
	CreatorHandle string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Active reports whether the listing is still visible at now.
func (l Listing) Active(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}

// TimeLeft is the remaining lifetime at now, never negative.
func (l Listing) TimeLeft(now time.Time) time.Duration {
	if d := l.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// NewListing carries the fields supplied by the creator.
type NewListing struct {
	Category      Category
	Body          string
	CreatorID     int64
	CreatorHandle string
	Duration      time.Duration
}

func (n NewListing) validate() error {
	if _, ok := ParseCategory(string(n.Category)); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, n.Category)
	}
	if n.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	if n.CreatorID == 0 {
		return fmt.Errorf("%w: creator is required", ErrInvalid)
	}
	return nil
}

// Store persists listings. Reads only ever return active listings.
type Store interface {
	Create(ctx context.Context, n NewListing) (Listing, error)
	Get(ctx context.Context, id string) (Listing, error)
	ListByCategory(ctx context.Context, category Category) ([]Listing, error)
	ListAll(ctx context.Context) ([]Listing, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]Listing, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type options struct {
	now func() time.Time
}

// Option customises a store.
type Option func(*options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stamp computes creation and expiry at millisecond precision, the resolution both stores keep.
func stamp(now time.Time, d time.Duration) (time.Time, time.Time) {
	created := time.UnixMilli(now.UnixMilli())
	expires := created.Add(d)
	if !expires.After(created) {
		expires = created.Add(time.Millisecond)
	}
	return created, expires
}
