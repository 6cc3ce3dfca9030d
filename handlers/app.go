// handlers/app.go
package handlers

import (
	"strings"

	"wellness-rewards-system/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type AppOptions struct {
	ServiceToken   string
	AllowedOrigins []string
	// AccessLog turns on fiber's request logger.
	AccessLog bool
	Log       *zap.SugaredLogger

	Habits      *HabitHandler
	Goals       *GoalHandler
	Activity    *ActivityHandler
	Progression *ProgressionHandler
}

// NewApp builds the fiber app with every route mounted. User routes live
// under /s and need the gateway's X-User-ID header.
func NewApp(o AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler(o.Log),
	})

	app.Use(recover.New())
	if o.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 🔐❗ Everything below only accepts requests forwarded by the gateway
	app.Use(middleware.GatewayAuthMiddleware(o.ServiceToken, o.Log))

	if len(o.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(o.AllowedOrigins, ","),
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-User-ID, X-User-Roles",
			ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
			AllowCredentials: true,
			MaxAge:           86400,
		}))
	}

	secured := app.Group("/s", middleware.UserContextMiddleware(o.Log))
	if o.Habits != nil {
		SetupHabitRoutes(secured, o.Habits)
	}
	if o.Goals != nil {
		SetupGoalRoutes(secured, o.Goals)
	}
	if o.Activity != nil {
		SetupActivityRoutes(secured, o.Activity)
	}
	if o.Progression != nil {
		SetupProgressionRoutes(secured, o.Progression)
	}
	return app
}

func errorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Errorf("❌ Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
