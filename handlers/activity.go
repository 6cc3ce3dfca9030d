// handlers/activity.go
package handlers

import (
	"wellness-rewards-system/models"
	"wellness-rewards-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	Activity *services.ActivityService
	Log      *zap.SugaredLogger
}

type journalRequest struct {
	Title   *string  `json:"title" validate:"omitempty,max=200"`
	Content string   `json:"content" validate:"required"`
	Mood    int      `json:"mood" validate:"omitempty,min=1,max=10"`
	Tags    []string `json:"tags" validate:"omitempty,max=20,dive,max=32"`
	Date    string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type financeRequest struct {
	Kind        string           `json:"type" validate:"required,oneof=income expense"`
	Category    string           `json:"category" validate:"required,max=64"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Date        string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description *string          `json:"description"`
}

func (h *ActivityHandler) Journal(c *fiber.Ctx) error {
	var req journalRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	res, err := h.Activity.RecordJournalEntry(c.UserContext(), services.JournalInput{
		OwnerID: userID(c),
		Title:   req.Title,
		Content: req.Content,
		Mood:    req.Mood,
		Tags:    req.Tags,
		Date:    models.Day(req.Date),
	})
	if err != nil {
		return respondError(c, h.Log, "Failed to save journal entry", err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *ActivityHandler) Finance(c *fiber.Ctx) error {
	var req financeRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	res, err := h.Activity.RecordFinanceEntry(c.UserContext(), services.FinanceInput{
		OwnerID:     userID(c),
		Kind:        models.FinanceKind(req.Kind),
		Category:    req.Category,
		Amount:      *req.Amount,
		Date:        models.Day(req.Date),
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, h.Log, "Failed to save finance entry", err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func SetupActivityRoutes(secured fiber.Router, h *ActivityHandler) {
	secured.Post("/journal", h.Journal)
	secured.Post("/finance", h.Finance)
}
