package listings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/core/logger"
)

const listingColumns = "id, category, body, creator_id, creator_handle, created_at, expires_at"

type listingRow struct {
	ID            string `db:"id"`
	Category      string `db:"category"`
	Body          string `db:"body"`
	CreatorID     int64  `db:"creator_id"`
	CreatorHandle string `db:"creator_handle"`
	CreatedAt     int64  `db:"created_at"`
	ExpiresAt     int64  `db:"expires_at"`
}

func (r listingRow) listing() Listing {
	return Listing{
		ID:            r.ID,
		Category:      Category(r.Category),
		Body:          r.Body,
		CreatorID:     r.CreatorID,
		CreatorHandle: r.CreatorHandle,
		CreatedAt:     time.UnixMilli(r.CreatedAt),
		ExpiresAt:     time.UnixMilli(r.ExpiresAt),
	}
}

// SQLStore persists listings in the listings table. Timestamps are unix milliseconds.
type SQLStore struct {
	db   *sqlx.DB
	opts options
	// seq is the insertion-order column that breaks created_at ties.
	seq string
}

// NewSQLStore wraps an open postgres or sqlite3 connection.
func NewSQLStore(db *sqlx.DB, opts ...Option) *SQLStore {
	seq := "seq"
	if db.DriverName() == coredatabase.DriverSQLite {
		seq = "rowid"
	}
	return &SQLStore{db: db, opts: buildOptions(opts), seq: seq}
}

// Create inserts a new listing stamped with the store clock.
func (s *SQLStore) Create(ctx context.Context, n NewListing) (Listing, error) {
	if err := n.validate(); err != nil {
		return Listing{}, err
	}
	created, expires := stamp(s.opts.now(), n.Duration)
	row := listingRow{
		ID:            uuid.NewString(),
		Category:      string(n.Category),
		Body:          n.Body,
		CreatorID:     n.CreatorID,
		CreatorHandle: n.CreatorHandle,
		CreatedAt:     created.UnixMilli(),
		ExpiresAt:     expires.UnixMilli(),
	}
	q := `INSERT INTO listings (` + listingColumns + `)
		VALUES (:id, :category, :body, :creator_id, :creator_handle, :created_at, :expires_at)`
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		logger.Error(ctx, logger.CompListings, "listing.create",
			slog.String("status", "fail"),
			slog.String("category", row.Category),
			slog.String("err", err.Error()),
		)
		return Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	logger.Debug(ctx, logger.CompListings, "listing.create",
		slog.String("listing_id", row.ID),
		slog.String("category", row.Category),
	)
	return row.listing(), nil
}

// Get returns an active listing or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, id string) (Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Listing{}, ErrNotFound
	}
	var row listingRow
	q := s.db.Rebind(`SELECT ` + listingColumns + ` FROM listings WHERE id = ? AND expires_at > ?`)
	err := s.db.GetContext(ctx, &row, q, id, s.nowMS())
	if errors.Is(err, sql.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	if err != nil {
		return Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return row.listing(), nil
}

// ListByCategory returns the active listings of one category, newest first.
func (s *SQLStore) ListByCategory(ctx context.Context, category Category) ([]Listing, error) {
	return s.selectActive(ctx, `category = ?`, `created_at DESC, `+s.seq+` DESC`, string(category))
}

// ListAll returns every active listing, newest first.
func (s *SQLStore) ListAll(ctx context.Context) ([]Listing, error) {
	return s.selectActive(ctx, "", `created_at DESC, `+s.seq+` DESC`)
}

// ListByCreator returns a user's active listings, soonest expiry first.
func (s *SQLStore) ListByCreator(ctx context.Context, creatorID int64) ([]Listing, error) {
	return s.selectActive(ctx, `creator_id = ?`, `expires_at ASC, `+s.seq+` ASC`, creatorID)
}

// Delete removes the listing; unknown ids are not an error.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM listings WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Debug(ctx, logger.CompListings, "listing.delete", slog.String("listing_id", id))
	}
	return nil
}

// PurgeExpired deletes every row whose expiry has passed and returns how many went.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM listings WHERE expires_at <= ?`), s.nowMS())
	if err != nil {
		return 0, fmt.Errorf("purge listings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge listings: %w", err)
	}
	return n, nil
}

func (s *SQLStore) selectActive(ctx context.Context, where, order string, args ...any) ([]Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM listings WHERE expires_at > ?`
	if where != "" {
		q += ` AND ` + where
	}
	q += ` ORDER BY ` + order

	var rows []listingRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), append([]any{s.nowMS()}, args...)...); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	out := make([]Listing, len(rows))
	for i, r := range rows {
		out[i] = r.listing()
	}
	return out, nil
}

func (s *SQLStore) nowMS() int64 {
	return s.opts.now().UnixMilli()
}
