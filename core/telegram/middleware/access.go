package middleware

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID int64
	// Usernames lists additional admin handles, with or without the leading '@'.
	Usernames []string
	OnReject  tele.HandlerFunc
}

// IsAdmin reports whether the user is allowed to run admin commands.
func (o AdminOptions) IsAdmin(user *tele.User) bool {
	if user == nil {
		return false
	}
	if o.AdminID != 0 && user.ID == o.AdminID {
		return true
	}
	if user.Username == "" {
		return false
	}
	for _, name := range o.Usernames {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(name), "@"), user.Username) {
			return true
		}
	}
	return false
}

func (o AdminOptions) restricted() bool {
	return o.AdminID != 0 || len(o.Usernames) > 0
}

// AdminOnlyMiddleware ensures that only configured admins can invoke downstream handlers.
// With no admin configured every caller is rejected.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.restricted() || !opts.IsAdmin(c.Sender()) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
