package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const sessionTokenKey = "session_token"

// SessionToken takes the session token from "Authorization: Bearer <token>"
// or, failing that, the session cookie and stores it for Token. It never
// rejects a request; handlers decide whether a session is required.
func SessionToken(cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ""
		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			if t, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				token = strings.TrimSpace(t)
			}
		}
		if token == "" {
			token = c.Cookies(cookieName)
		}

		c.Locals(sessionTokenKey, token)
		return c.Next()
	}
}

// Token returns the token found by SessionToken, or "".
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(sessionTokenKey).(string)
	return token
}
