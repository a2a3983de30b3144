package handlers

import (
	"time"

	"github.com/biosecret/todo-auth/apperrors"
	"github.com/biosecret/todo-auth/middleware"
	"github.com/biosecret/todo-auth/models"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// RegisterHandler creates an account. It does not log the user in;
// browsers are sent on to the login page.
//
//	@Summary	Register a new user
//	@Tags		auth
//	@Accept		json,x-www-form-urlencoded
//	@Produce	json
//	@Param		body	body		models.CredentialsRequest	true	"credentials"
//	@Success	201		{object}	map[string]interface{}
//	@Success	303
//	@Failure	400		{object}	apperrors.Response
//	@Failure	409		{object}	apperrors.Response
//	@Router		/register [post]
func (h *Handler) RegisterHandler(c *fiber.Ctx) error {
	var req models.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}

	id, err := h.svc.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	if prefersHTML(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"message": "user registered successfully",
	})
}

// LoginHandler replaces any current session with a new one.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json,x-www-form-urlencoded
//	@Produce	json
//	@Param		body	body		models.CredentialsRequest	true	"credentials"
//	@Param		next	query		string						false	"local path to continue to"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	apperrors.Response
//	@Failure	401		{object}	apperrors.Response
//	@Router		/login [post]
func (h *Handler) LoginHandler(c *fiber.Ctx) error {
	var req models.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		// a login attempt always ends the current session
		if err := h.svc.Logout(c.UserContext(), middleware.Token(c)); err != nil {
			return err
		}
		h.clearSessionCookie(c)
		return apperrors.Validation("invalid request body")
	}

	token, user, err := h.svc.Login(c.UserContext(), middleware.Token(c), req.Username, req.Password)
	if err != nil {
		// the prior session is gone either way
		h.clearSessionCookie(c)
		return err
	}
	h.setSessionCookie(c, token)

	next := req.Next
	if next == "" {
		next = c.Query("next")
	}
	next = safeNext(next)
	if prefersHTML(c) {
		return c.Redirect(next, fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"message": "logged in",
		"token":   token,
		"next":    next,
		"user":    user,
	})
}

// LogoutHandler ends the session, if any.
//
//	@Summary	Log out
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Router		/logout [post]
func (h *Handler) LogoutHandler(c *fiber.Ctx) error {
	if err := h.svc.Logout(c.UserContext(), middleware.Token(c)); err != nil {
		return err
	}
	h.clearSessionCookie(c)

	if prefersHTML(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// MeHandler returns the logged-in user.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	models.User
//	@Failure	401	{object}	apperrors.Response
//	@Router		/me [get]
func (h *Handler) MeHandler(c *fiber.Ctx) error {
	user, err := h.svc.CurrentUser(c.UserContext(), middleware.Token(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Handler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.SessionTTL),
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  fasthttp.CookieExpireDelete,
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
