// handlers/progression_routes.go
package handlers

import (
	"wellness-rewards-system/middleware"
	"wellness-rewards-system/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProgressionHandler struct {
	Engine     *services.ProgressionEngine
	Rewards    *services.RewardService
	Reconciler *services.LedgerReconciler
	// Exporter is nil when object storage is not configured.
	Exporter *services.SnapshotExporter
	Log      *zap.SugaredLogger
}

func (h *ProgressionHandler) Progress(c *fiber.Ctx) error {
	recent := c.QueryInt("recent", 10)
	if recent <= 0 || recent > 200 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid recent parameter"})
	}
	sum, err := h.Engine.GetProgress(c.UserContext(), userID(c), recent)
	if err != nil {
		return respondError(c, h.Log, "Failed to fetch progress", err)
	}
	return c.JSON(sum)
}

func (h *ProgressionHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.Reconciler.Reconcile(c.UserContext())
	if err != nil && report == nil {
		return respondError(c, h.Log, "Reconcile failed", err)
	}
	resp := fiber.Map{"report": report}
	if err != nil {
		resp["errors"] = err.Error()
	}
	return c.JSON(resp)
}

func (h *ProgressionHandler) RebuildHabit(c *fiber.Ctx) error {
	habit, err := h.Engine.RebuildHabit(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, "Failed to rebuild habit", err)
	}
	return c.JSON(habit)
}

func (h *ProgressionHandler) ExportSnapshot(c *fiber.Ctx) error {
	if h.Exporter == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "Snapshot export is not configured"})
	}
	url, err := h.Exporter.Export(c.UserContext(), c.Params("owner"))
	if err != nil {
		return respondError(c, h.Log, "Failed to export snapshot", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}

func SetupProgressionRoutes(secured fiber.Router, h *ProgressionHandler) {
	secured.Get("/user/progress", h.Progress)

	secured.Get("/user/rewards", h.Rewards.GetUserRewards)
	secured.Get("/user/rewards/counts", h.Rewards.GetUserRewardCounts)
	secured.Post("/user/rewards/viewed", h.Rewards.MarkRewardsViewed)
	secured.Get("/user/rewards/stream", h.Rewards.StreamUserRewardsSSE)

	// 🛡️ Admin only
	admin := secured.Group("/admin", middleware.RequireRole("admin"))
	admin.Post("/reconcile", h.Reconcile)
	admin.Post("/habits/:id/rebuild", h.RebuildHabit)
	admin.Post("/users/:owner/snapshot", h.ExportSnapshot)
}
