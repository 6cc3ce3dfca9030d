// handlers/errors.go
package handlers

import (
	"errors"
	"fmt"
	"strings"

	"wellness-rewards-system/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// statusFor maps the service error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrPersistenceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, log *zap.SugaredLogger, msg string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Errorf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}
	body := fiber.Map{"error": msg, "cause": err.Error()}
	if services.Retriable(err) {
		body["retriable"] = true
	}
	return c.Status(status).JSON(body)
}

// parseBody decodes and validates a JSON request body into req. When it
// returns false the 400 response has already been written.
func parseBody(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body", "cause": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "fields": validationFields(err)})
	}
	return true, nil
}

func validationFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out = append(out, msg)
	}
	return out
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
