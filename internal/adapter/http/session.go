package http

import (
	"context"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionCookie = "cv_session"
	sessionLocal  = "sessionID"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// TTLExtender is the part of the session store the middleware touches.
type TTLExtender interface {
	ExtendTTL(ctx context.Context, sessionID string)
}

// SessionMiddleware guarantees every request carries a session id. A new
// random id is issued as a cookie when the request has none, and the
// session's lifetime is extended on every request.
func SessionMiddleware(store TTLExtender, ttl time.Duration, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(SessionCookie)
		if !sessionIDPattern.MatchString(id) {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				Expires:  time.Now().Add(ttl),
				HTTPOnly: true,
				Secure:   secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(sessionLocal, id)

		store.ExtendTTL(c.UserContext(), id)
		return c.Next()
	}
}

// SessionID returns the id assigned by SessionMiddleware, or "".
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocal).(string)
	return id
}
