package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionHeader carries the anonymous cart session in both directions.
	SessionHeader = "X-Session-ID"
	sessionKey    = "sessionID"
)

// CartSession makes sure every request has a cart session.
// A valid UUID sent by the browser is reused; anything else is replaced by a
// freshly minted one. The session is always echoed back so the browser can
// keep it for the next request.
func CartSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if parsed, err := uuid.Parse(sessionID); err == nil {
			sessionID = parsed.String()
		} else {
			sessionID = uuid.NewString()
		}

		c.Set(sessionKey, sessionID)
		c.Header(SessionHeader, sessionID)
		c.Next()
	}
}

// SessionID returns the cart session set by CartSession.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
