package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weatherpi-dashboard/internal/display"
	"github.com/i474232898/weatherpi-dashboard/internal/frame"
	"github.com/i474232898/weatherpi-dashboard/internal/weather"
)

const serviceName = "weatherpi"

// FrameSource is satisfied by *frame.Store.
type FrameSource interface {
	Latest() ([]byte, error)
}

// StatusSource is satisfied by *display.StatusBoard.
type StatusSource interface {
	Status() display.Status
}

// SnapshotSource is satisfied by *weather.Service.
type SnapshotSource interface {
	Latest() (weather.Snapshot, bool)
}

type statusResponse struct {
	display.Status
	Snapshot *weather.Snapshot `json:"snapshot,omitempty"`
}

// NewApp builds the fiber app with the central error handler and global middleware.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// snapshots may be nil; the status then carries no snapshot.
func RegisterRoutes(app *fiber.App, frames FrameSource, status StatusSource, snapshots SnapshotSource) {
	app.Get("/", func(c *fiber.Ctx) error {
		data, err := frames.Latest()
		if err != nil {
			if errors.Is(err, frame.ErrNoFrame) {
				return fiber.NewError(fiber.StatusNotFound, "no frame exported yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read frame")
		}

		c.Set(fiber.HeaderContentType, "image/jpeg")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return c.Send(data)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		if status == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "display loop not running")
		}
		resp := statusResponse{Status: status.Status()}
		if snapshots != nil {
			if snap, ok := snapshots.Latest(); ok {
				resp.Snapshot = &snap
			}
		}
		return c.JSON(resp)
	})
}
