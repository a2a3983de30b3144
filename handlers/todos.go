package handlers

import (
	"strconv"

	"github.com/biosecret/todo-auth/apperrors"
	"github.com/biosecret/todo-auth/middleware"
	"github.com/biosecret/todo-auth/models"
	"github.com/gofiber/fiber/v2"
)

// HandleAllTodos lists the caller's todos, newest first.
//
//	@Summary	List todos
//	@Tags		todos
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		models.Todo
//	@Failure	401	{object}	apperrors.Response
//	@Router		/todos [get]
func (h *Handler) HandleAllTodos(c *fiber.Ctx) error {
	userID, err := h.svc.RequireAuthenticated(c.UserContext(), middleware.Token(c))
	if err != nil {
		return err
	}

	todos, err := h.svc.ListTodos(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(todos)
}

// HandleCreateTodo adds a todo. Blank content is accepted and ignored.
//
//	@Summary	Create a todo
//	@Tags		todos
//	@Accept		json,x-www-form-urlencoded
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		models.CreateTodoRequest	true	"todo"
//	@Success	201		{object}	map[string]interface{}
//	@Success	200		{object}	map[string]interface{}
//	@Failure	401		{object}	apperrors.Response
//	@Router		/todos [post]
func (h *Handler) HandleCreateTodo(c *fiber.Ctx) error {
	userID, err := h.svc.RequireAuthenticated(c.UserContext(), middleware.Token(c))
	if err != nil {
		return err
	}

	var req models.CreateTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}

	id, created, err := h.svc.AddTodo(c.UserContext(), userID, req.Content)
	if err != nil {
		return err
	}
	if !created {
		return c.JSON(fiber.Map{"created": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "created": true})
}

// HandleToggleTodo flips the done flag of one of the caller's todos.
//
//	@Summary	Toggle a todo
//	@Tags		todos
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"todo id"
//	@Success	200	{object}	map[string]interface{}
//	@Failure	400	{object}	apperrors.Response
//	@Failure	401	{object}	apperrors.Response
//	@Router		/todos/{id}/toggle [post]
func (h *Handler) HandleToggleTodo(c *fiber.Ctx) error {
	userID, err := h.svc.RequireAuthenticated(c.UserContext(), middleware.Token(c))
	if err != nil {
		return err
	}

	todoID, err := todoIDParam(c)
	if err != nil {
		return err
	}

	done, err := h.svc.ToggleTodo(c.UserContext(), userID, todoID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": todoID, "done": done})
}

// HandleDeleteTodo removes one of the caller's todos.
//
//	@Summary	Delete a todo
//	@Tags		todos
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"todo id"
//	@Success	200	{object}	map[string]interface{}
//	@Failure	400	{object}	apperrors.Response
//	@Failure	401	{object}	apperrors.Response
//	@Router		/todos/{id}/delete [post]
func (h *Handler) HandleDeleteTodo(c *fiber.Ctx) error {
	userID, err := h.svc.RequireAuthenticated(c.UserContext(), middleware.Token(c))
	if err != nil {
		return err
	}

	todoID, err := todoIDParam(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteTodo(c.UserContext(), userID, todoID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": todoID, "message": "todo deleted"})
}

func todoIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid todo id")
	}
	return id, nil
}
