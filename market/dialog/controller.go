// Package dialog drives the conversational marketplace UI.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/metrics"
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/market/i18n"
	"github.com/m3rciful/postbot/market/ledger"
	"github.com/m3rciful/postbot/market/listings"
)

// Scheduler arranges the deletion of a listing at its expiry.
type Scheduler interface {
	Schedule(id string, at time.Time)
}

// Event is one inbound user action.
type Event struct {
	ChatID int64
	UserID int64
	// Username is the sender's handle without '@', if any.
	Username string
	// MessageID is set for user messages so they can be cleaned up later.
	MessageID int
	Action    Action
}

// Reply tells the transport how to answer the update beyond the rendered screen.
type Reply struct {
	// Alert is shown as a transient popup instead of a new screen.
	Alert string
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Sessions     *state.Manager
	Listings     listings.Store
	Ledger       ledger.Ledger
	Scheduler    Scheduler
	Transport    Transport
	AdminContact string
	Now          func() time.Time
}

// Controller is the conversation state machine. It is safe for concurrent use;
// events of one user are processed one at a time.
type Controller struct {
	sessions     *state.Manager
	store        listings.Store
	ledger       ledger.Ledger
	scheduler    Scheduler
	transcript   *Transcript
	adminContact string
	now          func() time.Time
}

// New wires a Controller.
func New(d Deps) *Controller {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	sessions := d.Sessions
	if sessions == nil {
		sessions = state.NewManager(state.WithClock(now))
	}
	return &Controller{
		sessions:     sessions,
		store:        d.Listings,
		ledger:       d.Ledger,
		scheduler:    d.Scheduler,
		transcript:   NewTranscript(d.Transport),
		adminContact: d.AdminContact,
		now:          now,
	}
}

// Sessions exposes the session manager, e.g. for routing free text.
func (c *Controller) Sessions() *state.Manager {
	return c.sessions
}

// Handle applies ev to the sender's session and renders the resulting screen.
func (c *Controller) Handle(ctx context.Context, ev Event) (Reply, error) {
	if ev.Action == nil {
		return Reply{}, errors.New("dialog: nil action")
	}
	sess, release := c.sessions.Acquire(ev.UserID)
	defer release()

	sess.RecordInbound(ev.MessageID)
	loc := i18n.Normalize(sess.Locale)

	switch a := ev.Action.(type) {
	case Start:
		sess.ClearPending()
		sess.LocaleChosen = false
		if _, err := c.ledger.Ensure(ctx, ev.UserID); err != nil {
			return Reply{}, err
		}
		return Reply{}, c.show(ctx, ev, sess, localeScreen())

	case ChooseLocale:
		sess.Locale = i18n.Normalize(a.Locale)
		sess.LocaleChosen = true
		sess.ClearPending()
		return Reply{}, c.showAll(ctx, ev, sess)

	case ToggleLocale:
		sess.Locale = i18n.Toggle(sess.Locale)
		sess.LocaleChosen = true
		return Reply{}, c.showAll(ctx, ev, sess)

	case ShowAll:
		return Reply{}, c.showAll(ctx, ev, sess)

	case ShowCategories:
		return Reply{}, c.show(ctx, ev, sess, categoriesScreen(loc))

	case OpenCategory:
		items, err := c.store.ListByCategory(ctx, a.Category)
		if err != nil {
			return Reply{}, err
		}
		return Reply{}, c.show(ctx, ev, sess, categoryScreen(loc, a.Category, items))

	case OpenListing:
		l, err := c.store.Get(ctx, a.ID)
		if errors.Is(err, listings.ErrNotFound) {
			return Reply{}, c.show(ctx, ev, sess, notFoundScreen(loc))
		}
		if err != nil {
			return Reply{}, err
		}
		return Reply{}, c.show(ctx, ev, sess, listingScreen(loc, l, ev.UserID, c.now()))

	case RequestCreate:
		return Reply{}, c.show(ctx, ev, sess, tierScreen(loc, a.Category))

	case ChooseTier:
		sess.SetPending(state.Pending{Category: string(a.Category), Duration: a.Tier.Duration, Price: a.Tier.Price})
		return Reply{}, c.show(ctx, ev, sess, promptBodyScreen(loc, a.Category, a.Tier.Duration))

	case CancelCreate:
		sess.ClearPending()
		items, err := c.store.ListByCategory(ctx, a.Category)
		if err != nil {
			return Reply{}, err
		}
		return Reply{}, c.show(ctx, ev, sess, categoryScreen(loc, a.Category, items))

	case DeleteListing:
		return c.deleteListing(ctx, ev, sess, loc, a.ID)

	case Profile:
		return Reply{}, c.profile(ctx, ev, sess, loc)

	case TopUpInfo:
		return Reply{}, c.show(ctx, ev, sess, topUpScreen(loc, c.adminContact))

	case SubmitText:
		if !sess.HasPending() {
			if !sess.LocaleChosen {
				return Reply{}, c.show(ctx, ev, sess, localeScreen())
			}
			return Reply{}, c.show(ctx, ev, sess, categoriesScreen(loc))
		}
		return Reply{}, c.submit(ctx, ev, sess, loc, a.Text)

	case AdminTopUp:
		return Reply{}, c.adminTopUp(ctx, ev, sess, a.Args)

	case AdminListUsers:
		return Reply{}, c.adminListUsers(ctx, ev, sess)

	case AdminDenied:
		logger.Warn(ctx, logger.CompAdmin, "admin.denied", slog.Int64("caller_id", ev.UserID))
		return Reply{}, c.show(ctx, ev, sess, []Message{text(tr(loc, "admin_not_authorized"))})
	}
	return Reply{}, fmt.Errorf("dialog: unhandled action %T", ev.Action)
}

func (c *Controller) show(ctx context.Context, ev Event, sess *state.Session, msgs []Message) error {
	return c.transcript.Show(ctx, ev.ChatID, sess, msgs...)
}

func (c *Controller) showAll(ctx context.Context, ev Event, sess *state.Session) error {
	items, err := c.store.ListAll(ctx)
	if err != nil {
		return err
	}
	return c.show(ctx, ev, sess, allListingsScreen(i18n.Normalize(sess.Locale), items))
}

func (c *Controller) deleteListing(ctx context.Context, ev Event, sess *state.Session, loc, id string) (Reply, error) {
	l, err := c.store.Get(ctx, id)
	if errors.Is(err, listings.ErrNotFound) {
		return Reply{}, c.show(ctx, ev, sess, notFoundScreen(loc))
	}
	if err != nil {
		return Reply{}, err
	}
	if l.CreatorID != ev.UserID {
		logger.Info(ctx, logger.CompDialog, "listing.delete.denied",
			slog.String("listing_id", l.ID),
			slog.Int64("creator_id", l.CreatorID),
		)
		return Reply{Alert: tr(loc, "only_creator")}, nil
	}
	if err := c.store.Delete(ctx, l.ID); err != nil {
		return Reply{}, err
	}
	metrics.ListingsRemoved.WithLabelValues("owner").Inc()
	logger.Info(ctx, logger.CompDialog, "listing.deleted",
		slog.String("listing_id", l.ID),
		slog.String("category", string(l.Category)),
	)
	return Reply{}, c.show(ctx, ev, sess, deletedScreen(loc, l.Category))
}

// submit charges the pending tier and publishes the listing. On insufficient funds
// the pending context is kept so the next message retries. A blank body is never charged.
func (c *Controller) submit(ctx context.Context, ev Event, sess *state.Session, loc, body string) error {
	p := *sess.Pending
	cat := listings.Category(p.Category)
	tier := tierCode(p)

	body = strings.TrimSpace(body)
	if body == "" {
		return c.show(ctx, ev, sess, promptBodyScreen(loc, cat, p.Duration))
	}

	if _, err := c.ledger.Ensure(ctx, ev.UserID); err != nil {
		return err
	}
	ok, err := c.ledger.Debit(ctx, ev.UserID, p.Price)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info(ctx, logger.CompDialog, "listing.create.insufficient",
			slog.String("category", p.Category),
			slog.Int64("price", p.Price),
		)
		return c.show(ctx, ev, sess, insufficientScreen(loc, cat))
	}

	l, err := c.store.Create(ctx, listings.NewListing{
		Category:      cat,
		Body:          body,
		CreatorID:     ev.UserID,
		CreatorHandle: ev.Username,
		Duration:      p.Duration,
	})
	if err != nil {
		c.refund(ctx, ev.UserID, p.Price)
		showErr := c.show(ctx, ev, sess, failureScreen(loc))
		return errors.Join(fmt.Errorf("create listing: %w", err), showErr)
	}

	if c.scheduler != nil {
		c.scheduler.Schedule(l.ID, l.ExpiresAt)
	}
	sess.ClearPending()
	metrics.ListingsCreated.WithLabelValues(string(cat), tier).Inc()
	logger.Info(ctx, logger.CompDialog, "listing.created",
		slog.String("listing_id", l.ID),
		slog.String("category", string(cat)),
		slog.String("tier", tier),
		slog.Int64("price", p.Price),
	)
	return c.show(ctx, ev, sess, createdScreen(loc, l, p.Duration))
}

func (c *Controller) refund(ctx context.Context, userID, amount int64) {
	if err := c.ledger.Credit(ctx, userID, amount); err != nil {
		logger.Error(ctx, logger.CompLedger, "wallet.refund.fail",
			slog.Int64("wallet_user_id", userID),
			slog.Int64("amount", amount),
			slog.String("err", err.Error()),
		)
		return
	}
	metrics.LedgerCredits.WithLabelValues("refund").Inc()
}

func (c *Controller) profile(ctx context.Context, ev Event, sess *state.Session, loc string) error {
	w, err := c.ledger.Ensure(ctx, ev.UserID)
	if err != nil {
		return err
	}
	mine, err := c.store.ListByCreator(ctx, ev.UserID)
	if err != nil {
		return err
	}
	return c.show(ctx, ev, sess, profileScreen(loc, ev.UserID, w.Balance, mine, c.now()))
}

func tierCode(p state.Pending) string {
	for _, t := range listings.Tiers() {
		if t.Duration == p.Duration && t.Price == p.Price {
			return t.Code
		}
	}
	return "custom"
}
