package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions names the single admin and what everyone else gets.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// isAdmin is false for everyone when no admin is configured.
func (o AdminOptions) isAdmin(u *tele.User) bool {
	return o.AdminID != 0 && u != nil && u.ID == o.AdminID
}

// AdminOnlyMiddleware lets only the admin reach next.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.isAdmin(c.Sender()) {
				return next(c)
			}
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
