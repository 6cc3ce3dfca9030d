package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wellness-rewards-system/models"

	"github.com/gofiber/fiber/v2"
)

// grantCursor tracks what a stream has already pushed. Polls are inclusive
// of the cursor time, so grants sharing that timestamp are remembered by ID.
type grantCursor struct {
	at   time.Time
	sent map[string]struct{}
}

func newGrantCursor(at time.Time) *grantCursor {
	return &grantCursor{at: at, sent: map[string]struct{}{}}
}

// advance drops grants already pushed and moves the cursor past the rest.
func (c *grantCursor) advance(grants []models.RewardGrant) []models.RewardGrant {
	fresh := make([]models.RewardGrant, 0, len(grants))
	latest := c.at
	for _, g := range grants {
		if _, ok := c.sent[g.ID]; ok {
			continue
		}
		fresh = append(fresh, g)
		if g.GrantedAt.After(latest) {
			latest = g.GrantedAt
		}
	}
	if latest.After(c.at) {
		c.at = latest
		c.sent = map[string]struct{}{}
	}
	for _, g := range fresh {
		if g.GrantedAt.Equal(c.at) {
			c.sent[g.ID] = struct{}{}
		}
	}
	return fresh
}

// StreamUserRewardsSSE pushes newly granted badges to the authenticated user.
func (s *RewardService) StreamUserRewardsSSE(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	interval := s.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-done:
				cancel()
			case <-ctx.Done():
			}
		}()

		// only grants after the stream opened are pushed
		cursor := newGrantCursor(time.Now())

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				pollCtx, stop := context.WithTimeout(ctx, interval)
				grants, err := s.Store.ListRewardGrantsSince(pollCtx, userID, cursor.at)
				stop()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.Log.Warnf("SSE query error for user %s: %v", userID, err)
					continue
				}
				grants = cursor.advance(grants)
				if len(grants) == 0 {
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
					continue
				}

				for _, g := range grants {
					payload, _ := json.Marshal(g)
					fmt.Fprintf(w, "event: reward\ndata: %s\n\n", payload)
				}

				// Flush fails once the client is gone
				if err := w.Flush(); err != nil {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}
