// services/reward_service.go
package services

import (
	"strconv"
	"time"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RewardService is the read side of reward grants: the badge inbox.
// Grants are only ever written by the BadgeDetector.
type RewardService struct {
	Store store.Gateway
	Log   *zap.SugaredLogger
	// PollInterval is how often the SSE stream checks for new grants.
	PollInterval time.Duration
}

func NewRewardService(gw store.Gateway, log *zap.SugaredLogger) *RewardService {
	return &RewardService{Store: gw, Log: log, PollInterval: 2 * time.Second}
}

// --- User Handlers ---

// GetUserRewards lists the caller's grants, newest first.
func (s *RewardService) GetUserRewards(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	grants, err := s.Store.ListRewardGrants(c.UserContext(), userID, limit)
	if err != nil {
		s.Log.Errorf("DB Error fetching rewards for %s: %v", userID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Failed to fetch rewards"})
	}
	if grants == nil {
		grants = []models.RewardGrant{}
	}
	return c.JSON(grants)
}

// GetUserRewardCounts returns the unviewed badge count. Clients poll this
// when they do not hold an SSE stream open.
func (s *RewardService) GetUserRewardCounts(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	unviewed, err := s.Store.CountUnviewedGrants(c.UserContext(), userID)
	if err != nil {
		s.Log.Errorf("DB Error counting unviewed rewards for %s: %v", userID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "DB error counting unviewed rewards"})
	}
	return c.JSON(fiber.Map{"unviewed_count": unviewed})
}

// MarkRewardsViewed flags every grant the caller holds as seen.
func (s *RewardService) MarkRewardsViewed(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	marked, err := s.Store.MarkRewardGrantsViewed(c.UserContext(), userID)
	if err != nil {
		s.Log.Errorf("DB Error marking rewards viewed for %s: %v", userID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Failed to mark rewards viewed"})
	}
	return c.JSON(fiber.Map{"message": "Rewards marked as viewed", "updated": marked})
}
