package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/market/i18n"
	"github.com/m3rciful/postbot/market/ledger"
	"github.com/m3rciful/postbot/market/listings"
)

type harness struct {
	ctrl      *Controller
	tr        *fakeTransport
	store     *listings.MemoryStore
	ledger    *ledger.MemoryLedger
	scheduler *fakeScheduler
	clock     *clock
}

func newHarness(t *testing.T, initialBalance int64) *harness {
	t.Helper()
	clk := &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	h := &harness{
		tr:        newFakeTransport(),
		store:     listings.NewMemoryStore(listings.WithClock(clk.Now)),
		ledger:    ledger.NewMemoryLedger(initialBalance),
		scheduler: &fakeScheduler{},
		clock:     clk,
	}
	h.ctrl = New(Deps{
		Sessions:     state.NewManager(state.WithClock(clk.Now)),
		Listings:     h.store,
		Ledger:       h.ledger,
		Scheduler:    h.scheduler,
		Transport:    h.tr,
		AdminContact: "@operator",
		Now:          clk.Now,
	})
	return h
}

func (h *harness) do(t *testing.T, userID int64, a Action) Reply {
	t.Helper()
	reply, err := h.ctrl.Handle(context.Background(), Event{ChatID: userID, UserID: userID, Username: handle(userID), Action: a})
	if err != nil {
		t.Fatalf("handle %T: %v", a, err)
	}
	return reply
}

func handle(userID int64) string {
	return "user" + string(rune('a'+userID%26))
}

var msgSeq = 500

func (h *harness) say(t *testing.T, userID int64, body string) Reply {
	t.Helper()
	msgSeq++
	reply, err := h.ctrl.Handle(context.Background(), Event{ChatID: userID, UserID: userID, Username: handle(userID), MessageID: msgSeq, Action: SubmitText{Text: body}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return reply
}

func (h *harness) session(t *testing.T, userID int64) state.Session {
	t.Helper()
	s, ok := h.ctrl.Sessions().Peek(userID)
	if !ok {
		t.Fatalf("no session for %d", userID)
	}
	return s
}

func (h *harness) createListing(t *testing.T, userID int64, cat listings.Category, tierCode, body string) listings.Listing {
	t.Helper()
	tier, _ := listings.TierByCode(tierCode)
	h.do(t, userID, ChooseTier{Category: cat, Tier: tier})
	h.say(t, userID, body)
	mine, _ := h.store.ListByCreator(context.Background(), userID)
	for _, l := range mine {
		if l.Body == body {
			return l
		}
	}
	t.Fatalf("listing %q not created", body)
	return listings.Listing{}
}

func TestStartOffersLanguages(t *testing.T) {
	h := newHarness(t, 100)
	h.do(t, 1, Start{})
	m := h.tr.last()
	if m.Text != i18n.Translate("choose_lang", i18n.EN, nil) {
		t.Fatalf("text = %q", m.Text)
	}
	if _, ok := findButton(m.Keyboard, TagLang); !ok {
		t.Fatalf("language buttons missing")
	}
	if b, _ := h.ledger.Balance(context.Background(), 1); b != 100 {
		t.Fatalf("wallet not created on start, balance %d", b)
	}
}

func TestChooseLocaleShowsAllListings(t *testing.T) {
	h := newHarness(t, 100)
	h.do(t, 1, Start{})
	h.do(t, 1, ChooseLocale{Locale: i18n.RU})
	s := h.session(t, 1)
	if s.Locale != i18n.RU || !s.LocaleChosen {
		t.Fatalf("session = %+v", s)
	}
	if got := h.tr.last().Text; got != "Все объявления:" {
		t.Fatalf("text = %q", got)
	}
	h.do(t, 1, ToggleLocale{})
	if h.session(t, 1).Locale != i18n.EN || h.tr.last().Text != "All posts:" {
		t.Fatalf("toggle did not switch to en")
	}
}

func TestScenarioCreateMassageListing(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()
	h.do(t, 1, ChooseLocale{Locale: i18n.EN})
	h.do(t, 1, OpenCategory{Category: listings.Massage})
	h.do(t, 1, RequestCreate{Category: listings.Massage})
	short, _ := listings.TierByCode("2h")
	h.do(t, 1, ChooseTier{Category: listings.Massage, Tier: short})
	if !h.session(t, 1).HasPending() {
		t.Fatalf("pending context not set")
	}
	h.say(t, 1, "test")

	if b, _ := h.ledger.Balance(ctx, 1); b != 80 {
		t.Fatalf("balance = %d, want 80", b)
	}
	items, _ := h.store.ListByCategory(ctx, listings.Massage)
	if len(items) != 1 || items[0].Body != "test" {
		t.Fatalf("listings = %+v", items)
	}
	l := items[0]
	if got := l.ExpiresAt.Sub(h.clock.Now()); got != 7200*time.Second {
		t.Fatalf("lifetime = %s", got)
	}
	if len(h.scheduler.tasks) != 1 || h.scheduler.tasks[0].ID != l.ID || !h.scheduler.tasks[0].At.Equal(l.ExpiresAt) {
		t.Fatalf("expiry not scheduled: %+v", h.scheduler.tasks)
	}
	if h.session(t, 1).HasPending() {
		t.Fatalf("pending context must be cleared after creation")
	}
	sess := h.session(t, 1)
	if len(sess.Outbound) != 2 || len(sess.Inbound) != 0 {
		t.Fatalf("transcript after create: in=%v out=%v", sess.Inbound, sess.Outbound)
	}
}

func TestScenarioInsufficientBalanceKeepsPending(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	h.do(t, 1, Start{})
	short, _ := listings.TierByCode("2h")
	h.do(t, 1, ChooseTier{Category: listings.Massage, Tier: short})
	h.say(t, 1, "too poor")

	if b, _ := h.ledger.Balance(ctx, 1); b != 10 {
		t.Fatalf("balance = %d, want 10", b)
	}
	if all, _ := h.store.ListAll(ctx); len(all) != 0 {
		t.Fatalf("listing created without funds: %+v", all)
	}
	s := h.session(t, 1)
	if !s.HasPending() || s.Pending.Category != string(listings.Massage) {
		t.Fatalf("pending context lost: %+v", s.Pending)
	}
	if got := h.tr.last().Text; got != i18n.Translate("insufficient_funds", i18n.EN, nil) {
		t.Fatalf("text = %q", got)
	}
	if len(h.scheduler.tasks) != 0 {
		t.Fatalf("nothing should be scheduled")
	}

	h.ledger.Credit(ctx, 1, 15)
	h.say(t, 1, "retry")
	items, _ := h.store.ListByCategory(ctx, listings.Massage)
	if len(items) != 1 || items[0].Body != "retry" {
		t.Fatalf("retry did not publish: %+v", items)
	}
	if b, _ := h.ledger.Balance(ctx, 1); b != 5 {
		t.Fatalf("balance after retry = %d", b)
	}
}

func TestScenarioListingExpires(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()
	l := h.createListing(t, 1, listings.Nails, "2h", "gel polish")

	h.clock.Advance(7201 * time.Second)
	if _, err := h.store.Get(ctx, l.ID); !errors.Is(err, listings.ErrNotFound) {
		t.Fatalf("get after expiry = %v", err)
	}
	if all, _ := h.store.ListAll(ctx); len(all) != 0 {
		t.Fatalf("expired listing visible: %+v", all)
	}
	h.do(t, 2, OpenListing{ID: l.ID})
	if got := h.tr.last().Text; got != i18n.Translate("post_not_found", i18n.EN, nil) {
		t.Fatalf("text = %q", got)
	}
}

func TestScenarioNonCreatorCannotDelete(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()
	l := h.createListing(t, 1, listings.Makeup, "24h", "evening makeup")

	h.do(t, 2, OpenListing{ID: l.ID})
	before := h.tr.sentCount()
	outBefore := h.session(t, 2).Outbound

	reply := h.do(t, 2, DeleteListing{ID: l.ID})
	if reply.Alert != i18n.Translate("only_creator", i18n.EN, nil) {
		t.Fatalf("alert = %q", reply.Alert)
	}
	if _, err := h.store.Get(ctx, l.ID); err != nil {
		t.Fatalf("listing must survive: %v", err)
	}
	if h.tr.sentCount() != before {
		t.Fatalf("rejected delete must not render a screen")
	}
	if got := h.session(t, 2).Outbound; len(got) != len(outBefore) {
		t.Fatalf("transcript changed on rejected delete: %v", got)
	}
}

func TestCreatorDeletesListing(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()
	l := h.createListing(t, 1, listings.CleanHouse, "2h", "deep clean")

	reply := h.do(t, 1, DeleteListing{ID: l.ID})
	if reply.Alert != "" {
		t.Fatalf("unexpected alert %q", reply.Alert)
	}
	if _, err := h.store.Get(ctx, l.ID); !errors.Is(err, listings.ErrNotFound) {
		t.Fatalf("listing still present")
	}
	if got := h.tr.last().Text; got != i18n.Translate("post_deleted", i18n.EN, nil) {
		t.Fatalf("text = %q", got)
	}
	h.do(t, 1, DeleteListing{ID: l.ID})
	if got := h.tr.last().Text; got != i18n.Translate("post_not_found", i18n.EN, nil) {
		t.Fatalf("second delete text = %q", got)
	}
}

func TestListingDetailShowsDeleteOnlyToCreator(t *testing.T) {
	h := newHarness(t, 100)
	l := h.createListing(t, 1, listings.ComputerServices, "2h", "fix laptops")
	h.clock.Advance(65 * time.Minute)

	h.do(t, 1, OpenListing{ID: l.ID})
	owner := h.tr.last()
	if _, ok := findButton(owner.Keyboard, TagDelete); !ok {
		t.Fatalf("creator must see delete button")
	}
	for _, want := range []string{"Category: Computer Services", "fix laptops", "Created: 1h 5m ago", "Expires in: 55m", "Contact: https://t.me/userb (@userb)"} {
		if !strings.Contains(owner.Text, want) {
			t.Fatalf("detail %q misses %q", owner.Text, want)
		}
	}

	h.do(t, 2, OpenListing{ID: l.ID})
	if _, ok := findButton(h.tr.last().Keyboard, TagDelete); ok {
		t.Fatalf("other users must not see delete button")
	}
}

func TestContactPlaceholderWithoutHandle(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()
	l, _ := h.store.Create(ctx, listings.NewListing{Category: listings.Massage, Body: "b", CreatorID: 9, Duration: time.Hour})
	h.do(t, 1, OpenListing{ID: l.ID})
	if !strings.Contains(h.tr.last().Text, "Contact: (no username)") {
		t.Fatalf("text = %q", h.tr.last().Text)
	}
}

func TestFreeTextBeforeLocaleChoiceOffersLanguages(t *testing.T) {
	h := newHarness(t, 100)
	h.do(t, 1, Start{})
	h.say(t, 1, "hello?")
	m := h.tr.last()
	if m.Text != i18n.Translate("choose_lang", i18n.EN, nil) {
		t.Fatalf("text = %q", m.Text)
	}
	if _, ok := findButton(m.Keyboard, TagLang); !ok {
		t.Fatalf("language buttons missing")
	}
	if sess := h.session(t, 1); len(sess.Outbound) != 1 || len(sess.Inbound) != 0 {
		t.Fatalf("transcript: in=%v out=%v", sess.Inbound, sess.Outbound)
	}
}

func TestFreeTextWithoutPendingShowsCategories(t *testing.T) {
	h := newHarness(t, 100)
	h.do(t, 1, Start{})
	h.do(t, 1, ChooseLocale{Locale: i18n.EN})
	h.say(t, 1, "hello?")
	m := h.tr.last()
	if m.Text != i18n.Translate("choose_category", i18n.EN, nil) {
		t.Fatalf("text = %q", m.Text)
	}
	if _, ok := findButton(m.Keyboard, TagCategory); !ok {
		t.Fatalf("categories keyboard missing")
	}
	if all, _ := h.store.ListAll(context.Background()); len(all) != 0 {
		t.Fatalf("free text must not create listings")
	}
}

func TestCancelCreateDropsPending(t *testing.T) {
	h := newHarness(t, 100)
	long, _ := listings.TierByCode("24h")
	h.do(t, 1, ChooseTier{Category: listings.Nails, Tier: long})
	h.do(t, 1, CancelCreate{Category: listings.Nails})
	if h.session(t, 1).HasPending() {
		t.Fatalf("pending must be cleared")
	}
	if got := h.tr.last().Text; got != "No posts yet in Nails." {
		t.Fatalf("text = %q", got)
	}
}

func TestCategoryListOrderingAndEmptyState(t *testing.T) {
	h := newHarness(t, 1000)
	h.do(t, 1, OpenCategory{Category: listings.Massage})
	m := h.tr.last()
	if m.Text != "No posts yet in Massage." {
		t.Fatalf("empty state = %q", m.Text)
	}
	if _, ok := findButton(m.Keyboard, TagCreate); !ok {
		t.Fatalf("empty state needs a create button")
	}

	h.createListing(t, 1, listings.Massage, "2h", "first")
	h.clock.Advance(time.Minute)
	h.createListing(t, 1, listings.Massage, "2h", "second one with a very long body text")
	h.do(t, 1, OpenCategory{Category: listings.Massage})
	m = h.tr.last()
	if m.Text != "📰 Posts in Massage:" {
		t.Fatalf("text = %q", m.Text)
	}
	if got := m.Keyboard[0][0].Text; got != "💆 second one with a very long..." {
		t.Fatalf("newest first preview = %q", got)
	}
}

func TestProfileSummarizesWalletAndListings(t *testing.T) {
	h := newHarness(t, 100)
	h.createListing(t, 1, listings.Massage, "24h", "a")
	h.createListing(t, 1, listings.Massage, "2h", "b")

	h.do(t, 1, Profile{})
	m := h.tr.last()
	for _, want := range []string{"Your profile:", "User ID: 1", "Wallet: 30₽", "Massage: 2", "- Massage: expires in 2h", "- Massage: expires in 24h"} {
		if !strings.Contains(m.Text, want) {
			t.Fatalf("profile %q misses %q", m.Text, want)
		}
	}
	if strings.Index(m.Text, "expires in 2h") > strings.Index(m.Text, "expires in 24h") {
		t.Fatalf("profile must list soonest expiry first: %q", m.Text)
	}
	if _, ok := findButton(m.Keyboard, TagTopUp); !ok {
		t.Fatalf("top-up button missing")
	}

	h.do(t, 1, TopUpInfo{})
	if got := h.tr.last().Text; got != "To top up your wallet contact: @operator" {
		t.Fatalf("top-up text = %q", got)
	}
}

func TestTransitionsKeepOnlyCurrentScreen(t *testing.T) {
	h := newHarness(t, 100)
	h.do(t, 1, Start{})
	first := h.session(t, 1).Outbound
	h.do(t, 1, ChooseLocale{Locale: i18n.EN})
	for _, id := range first {
		found := false
		for _, d := range h.tr.deleted {
			if d == id {
				found = true
			}
		}
		if !found {
			t.Fatalf("previous screen message %d not deleted", id)
		}
	}
	before := h.tr.sentCount()
	h.do(t, 1, ShowCategories{})
	sent := h.tr.sentSince(before)
	out := h.session(t, 1).Outbound
	if len(out) != len(sent) || out[0] != sent[0].ID {
		t.Fatalf("outbound %v does not match rendered %+v", out, sent)
	}
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()

	h.do(t, 7, AdminTopUp{Args: []string{"42"}})
	if got := h.tr.last().Text; got != "Usage: /topup <userid> <amount>" {
		t.Fatalf("usage = %q", got)
	}
	h.do(t, 7, AdminTopUp{Args: []string{"x", "10"}})
	if got := h.tr.last().Text; got != "Invalid arguments. Provide numeric user id and amount." {
		t.Fatalf("invalid = %q", got)
	}
	h.do(t, 7, AdminListUsers{})
	if got := h.tr.last().Text; got != "No users found." {
		t.Fatalf("empty list = %q", got)
	}
	h.do(t, 7, AdminTopUp{Args: []string{"42", "30"}})
	if got := h.tr.last().Text; got != "Topped up 30₽ to user 42." {
		t.Fatalf("done = %q", got)
	}
	if b, _ := h.ledger.Balance(ctx, 42); b != 130 {
		t.Fatalf("balance = %d", b)
	}
	h.do(t, 7, AdminListUsers{})
	if got := h.tr.last().Text; got != "Users (1):\n42: 130₽" {
		t.Fatalf("list = %q", got)
	}
	h.do(t, 8, AdminDenied{})
	if got := h.tr.last().Text; got != "Not authorized." {
		t.Fatalf("denied = %q", got)
	}
}

type failingStore struct {
	*listings.MemoryStore
}

func (failingStore) Create(context.Context, listings.NewListing) (listings.Listing, error) {
	return listings.Listing{}, errors.New("disk full")
}

func TestFailedCreateRefunds(t *testing.T) {
	h := newHarness(t, 100)
	h.ctrl.store = failingStore{h.store}
	short, _ := listings.TierByCode("2h")
	h.do(t, 1, ChooseTier{Category: listings.Massage, Tier: short})
	_, err := h.ctrl.Handle(context.Background(), Event{ChatID: 1, UserID: 1, Action: SubmitText{Text: "x"}})
	if err == nil {
		t.Fatalf("expected create error")
	}
	if b, _ := h.ledger.Balance(context.Background(), 1); b != 100 {
		t.Fatalf("balance after refund = %d", b)
	}
	if !h.session(t, 1).HasPending() {
		t.Fatalf("pending must survive a failed create")
	}
}

func TestBlankBodyIsNotCharged(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()
	short, _ := listings.TierByCode("2h")
	h.do(t, 1, ChooseTier{Category: listings.Massage, Tier: short})
	h.say(t, 1, "   \n\t ")

	if b, _ := h.ledger.Balance(ctx, 1); b != 100 {
		t.Fatalf("balance = %d, want 100", b)
	}
	if all, _ := h.store.ListAll(ctx); len(all) != 0 {
		t.Fatalf("blank body published: %+v", all)
	}
	if !h.session(t, 1).HasPending() {
		t.Fatalf("pending must survive a blank body")
	}
	want := promptBodyScreen(i18n.EN, listings.Massage, short.Duration)[0].Text
	if got := h.tr.last().Text; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	if len(h.scheduler.tasks) != 0 {
		t.Fatalf("nothing should be scheduled: %+v", h.scheduler.tasks)
	}

	h.say(t, 1, "  real text  ")
	if b, _ := h.ledger.Balance(ctx, 1); b != 80 {
		t.Fatalf("balance = %d, want 80", b)
	}
	items, _ := h.store.ListByCategory(ctx, listings.Massage)
	if len(items) != 1 || items[0].Body != "real text" {
		t.Fatalf("listings = %+v", items)
	}
}

func TestNilActionRejected(t *testing.T) {
	h := newHarness(t, 100)
	if _, err := h.ctrl.Handle(context.Background(), Event{UserID: 1}); err == nil {
		t.Fatalf("nil action must fail")
	}
}
