// handlers/habits.go
package handlers

import (
	"wellness-rewards-system/models"
	"wellness-rewards-system/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type HabitHandler struct {
	Habits *services.HabitService
	Engine *services.ProgressionEngine
	Log    *zap.SugaredLogger
}

type createHabitRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Kind         string  `json:"kind" validate:"required,oneof=build break"`
	Category     *string `json:"category" validate:"omitempty,max=64"`
	Difficulty   string  `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Frequency    string  `json:"frequency" validate:"omitempty,oneof=daily weekly custom"`
	Description  *string `json:"description"`
	TargetStreak int     `json:"target_streak" validate:"omitempty,min=1,max=3650"`
	StartDate    string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type completeHabitRequest struct {
	Date    string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Note    *string `json:"note" validate:"omitempty,max=2000"`
	Trigger *string `json:"trigger" validate:"omitempty,max=200"`
	Mood    *int    `json:"mood" validate:"omitempty,min=1,max=10"`
}

func (h *HabitHandler) Create(c *fiber.Ctx) error {
	var req createHabitRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	habit, err := h.Habits.Create(c.UserContext(), services.NewHabit{
		OwnerID:      userID(c),
		Title:        req.Title,
		Kind:         models.HabitKind(req.Kind),
		Category:     req.Category,
		Difficulty:   models.HabitDifficulty(req.Difficulty),
		Frequency:    models.HabitFrequency(req.Frequency),
		Description:  req.Description,
		TargetStreak: req.TargetStreak,
		StartDate:    models.Day(req.StartDate),
	})
	if err != nil {
		return respondError(c, h.Log, "Failed to create habit", err)
	}
	return c.Status(fiber.StatusCreated).JSON(habit)
}

func (h *HabitHandler) List(c *fiber.Ctx) error {
	habits, err := h.Habits.List(c.UserContext(), userID(c), c.QueryBool("include_inactive"))
	if err != nil {
		return respondError(c, h.Log, "Failed to fetch habits", err)
	}
	return c.JSON(habits)
}

func (h *HabitHandler) Get(c *fiber.Ctx) error {
	habit, err := h.Habits.Get(c.UserContext(), c.Params("id"), userID(c))
	if err != nil {
		return respondError(c, h.Log, "Habit not found", err)
	}
	return c.JSON(habit)
}

func (h *HabitHandler) Completions(c *fiber.Ctx) error {
	out, err := h.Habits.Completions(c.UserContext(), c.Params("id"), userID(c))
	if err != nil {
		return respondError(c, h.Log, "Failed to fetch completions", err)
	}
	return c.JSON(out)
}

func (h *HabitHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.Habits.Deactivate(c.UserContext(), c.Params("id"), userID(c)); err != nil {
		return respondError(c, h.Log, "Failed to deactivate habit", err)
	}
	return c.JSON(fiber.Map{"message": "Habit deactivated"})
}

func (h *HabitHandler) Delete(c *fiber.Ctx) error {
	if err := h.Habits.Delete(c.UserContext(), c.Params("id"), userID(c)); err != nil {
		return respondError(c, h.Log, "Failed to delete habit", err)
	}
	return c.JSON(fiber.Map{"message": "Habit deleted"})
}

// Complete records today's (or the given day's) completion. A repeat for the
// same day answers 200 with already_completed set.
func (h *HabitHandler) Complete(c *fiber.Ctx) error {
	var req completeHabitRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}

	res, err := h.Engine.RecordHabitCompletion(c.UserContext(), services.CompletionInput{
		HabitID: c.Params("id"),
		OwnerID: userID(c),
		Day:     models.Day(req.Date),
		Note:    req.Note,
		Trigger: req.Trigger,
		Mood:    req.Mood,
	})
	if err != nil {
		return respondError(c, h.Log, "Failed to record completion", err)
	}
	if res.AlreadyCompleted {
		return c.JSON(res)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *HabitHandler) Uncomplete(c *fiber.Ctx) error {
	res, err := h.Engine.RemoveHabitCompletion(c.UserContext(), c.Params("id"), userID(c), models.Day(c.Params("date")))
	if err != nil {
		return respondError(c, h.Log, "Failed to remove completion", err)
	}
	return c.JSON(res)
}

func SetupHabitRoutes(secured fiber.Router, h *HabitHandler) {
	secured.Post("/habits", h.Create)
	secured.Get("/habits", h.List)
	secured.Get("/habits/:id", h.Get)
	secured.Delete("/habits/:id", h.Delete)
	secured.Patch("/habits/:id/deactivate", h.Deactivate)
	secured.Get("/habits/:id/completions", h.Completions)
	secured.Post("/habits/:id/complete", h.Complete)
	secured.Delete("/habits/:id/complete/:date", h.Uncomplete)
}
