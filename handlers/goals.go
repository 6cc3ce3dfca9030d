// handlers/goals.go
package handlers

import (
	"wellness-rewards-system/models"
	"wellness-rewards-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type GoalHandler struct {
	Goals  *services.GoalService
	Engine *services.ProgressionEngine
	Log    *zap.SugaredLogger
}

type createGoalRequest struct {
	Title         string           `json:"title" validate:"required,max=200"`
	Description   *string          `json:"description"`
	TargetAmount  *decimal.Decimal `json:"target_amount" validate:"required"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Deadline      *string          `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

type savingsProgressRequest struct {
	CurrentAmount *decimal.Decimal `json:"current_amount" validate:"required"`
	// IsCompleted completes the goal below its target; false never reopens it.
	IsCompleted bool `json:"is_completed"`
}

func (h *GoalHandler) Create(c *fiber.Ctx) error {
	var req createGoalRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	in := services.NewSavingsGoal{
		OwnerID:      userID(c),
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: *req.TargetAmount,
	}
	if req.CurrentAmount != nil {
		in.CurrentAmount = *req.CurrentAmount
	}
	if req.Deadline != nil {
		d := models.Day(*req.Deadline)
		in.Deadline = &d
	}

	goal, err := h.Goals.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.Log, "Failed to create savings goal", err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (h *GoalHandler) List(c *fiber.Ctx) error {
	goals, err := h.Goals.List(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, h.Log, "Failed to fetch savings goals", err)
	}
	return c.JSON(goals)
}

func (h *GoalHandler) UpdateProgress(c *fiber.Ctx) error {
	var req savingsProgressRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	res, err := h.Engine.UpdateSavingsGoal(c.UserContext(), c.Params("id"), userID(c), services.SavingsUpdate{
		CurrentAmount: *req.CurrentAmount,
		MarkCompleted: req.IsCompleted,
	})
	if err != nil {
		return respondError(c, h.Log, "Failed to update savings goal", err)
	}
	return c.JSON(res)
}

func SetupGoalRoutes(secured fiber.Router, h *GoalHandler) {
	secured.Post("/goals", h.Create)
	secured.Get("/goals", h.List)
	secured.Patch("/goals/:id/progress", h.UpdateProgress)
}
