package middleware

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func messageContext(t *testing.T, user *tele.User) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Token: "1:test", Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b.NewContext(tele.Update{Message: &tele.Message{
		ID:     1,
		Text:   "/listusers",
		Sender: user,
		Chat:   &tele.Chat{ID: 100},
	}})
}

// runAdminOnly reports whether the guarded handler ran and whether OnReject fired.
func runAdminOnly(t *testing.T, opts AdminOptions, user *tele.User) (passed, rejected bool) {
	t.Helper()
	opts.OnReject = func(tele.Context) error {
		rejected = true
		return nil
	}
	h := AdminOnlyMiddleware(opts)(func(tele.Context) error {
		passed = true
		return nil
	})
	if err := h(messageContext(t, user)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return passed, rejected
}

func TestAdminOnlyAllowList(t *testing.T) {
	opts := AdminOptions{AdminID: 42, Usernames: []string{"@KittiKing", " ops_team "}}
	cases := []struct {
		name  string
		user  *tele.User
		admin bool
	}{
		{"admin id", &tele.User{ID: 42}, true},
		{"handle with different case", &tele.User{ID: 7, Username: "kittiking"}, true},
		{"handle configured without at", &tele.User{ID: 8, Username: "ops_team"}, true},
		{"unknown handle", &tele.User{ID: 9, Username: "stranger"}, false},
		{"no username", &tele.User{ID: 10}, false},
		{"partial handle", &tele.User{ID: 11, Username: "kitti"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			passed, rejected := runAdminOnly(t, opts, tc.user)
			if passed != tc.admin || rejected == tc.admin {
				t.Fatalf("passed=%v rejected=%v, want admin=%v", passed, rejected, tc.admin)
			}
		})
	}
}

func TestAdminOnlyUsernamesWithoutAdminID(t *testing.T) {
	opts := AdminOptions{Usernames: []string{"operator"}}
	if passed, _ := runAdminOnly(t, opts, &tele.User{ID: 5, Username: "Operator"}); !passed {
		t.Fatalf("listed handle must pass without admin_id")
	}
	if passed, rejected := runAdminOnly(t, opts, &tele.User{ID: 0}); passed || !rejected {
		t.Fatalf("zero id must not match an unset admin_id")
	}
}

func TestAdminOnlyRejectsEveryoneWhenUnconfigured(t *testing.T) {
	for _, user := range []*tele.User{{ID: 0}, {ID: 1, Username: "anyone"}} {
		passed, rejected := runAdminOnly(t, AdminOptions{}, user)
		if passed || !rejected {
			t.Fatalf("user %+v: passed=%v rejected=%v", user, passed, rejected)
		}
	}
}

func TestAdminOnlyWithoutRejectHandler(t *testing.T) {
	var passed bool
	h := AdminOnlyMiddleware(AdminOptions{AdminID: 42})(func(tele.Context) error {
		passed = true
		return nil
	})
	if err := h(messageContext(t, &tele.User{ID: 7})); err != nil || passed {
		t.Fatalf("non-admin: err=%v passed=%v", err, passed)
	}
}

func TestIsAdminNilUser(t *testing.T) {
	if (AdminOptions{AdminID: 42, Usernames: []string{"x"}}).IsAdmin(nil) {
		t.Fatalf("nil user must not be admin")
	}
}
