package handlers

import (
	"errors"
	"net/url"
	"strings"
	"unicode"

	"github.com/biosecret/todo-auth/apperrors"
	"github.com/biosecret/todo-auth/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders errors returned by handlers. Browsers hitting a
// protected page without a session are sent to the login page instead.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		if errors.Is(err, service.ErrAuthRequired) && prefersHTML(c) {
			return c.Redirect("/login?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusSeeOther)
		}

		appErr := apperrors.As(err)
		if appErr.Kind == apperrors.KindInternal {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(appErr.HTTPStatus()).JSON(appErr.ToResponse())
	}
}

func prefersHTML(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML
}

// safeNext keeps redirects on this site: only absolute local paths pass.
// Control characters and whitespace are refused since browsers strip some
// of them before resolving, which can turn "/\t/host" into "//host".
func safeNext(next string) string {
	const fallback = "/todos"
	if !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.IndexFunc(next, func(r rune) bool { return r <= ' ' || r == 0x7f || unicode.IsSpace(r) }) >= 0 {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
