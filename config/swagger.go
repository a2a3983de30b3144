package config

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	_ "github.com/biosecret/todo-auth/docs"
)

// AddSwaggerRoutes serves the API docs under /swagger when enabled.
func AddSwaggerRoutes(app *fiber.App, cfg *Config) {
	if !cfg.SwaggerEnabled {
		return
	}
	app.Get("/swagger/*", swagger.New(swagger.Config{
		Title:        "Todo Auth API",
		DeepLinking:  true,
		DocExpansion: "list",
	}))
}
