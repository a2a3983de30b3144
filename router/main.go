package router

import (
	"github.com/biosecret/todo-auth/handlers"
	"github.com/biosecret/todo-auth/middleware"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	app.Get("/health", h.HandleHealthCheck)

	app.Use(middleware.SessionToken(h.CookieName()))

	app.Post("/register", h.RegisterHandler)
	app.Post("/login", h.LoginHandler)
	app.Post("/logout", h.LogoutHandler)
	app.Get("/logout", h.LogoutHandler)
	app.Get("/me", h.MeHandler)

	todos := app.Group("/todos")
	todos.Get("/", h.HandleAllTodos)
	todos.Post("/", h.HandleCreateTodo)
	todos.Post("/add", h.HandleCreateTodo)
	todos.Get("/events", h.HandleTodoEvents)
	todos.Post("/:id/toggle", h.HandleToggleTodo)
	todos.Post("/:id/delete", h.HandleDeleteTodo)
}
