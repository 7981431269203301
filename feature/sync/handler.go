package sync

import (
	"errors"

	"github.com/arranf/MailChimpSync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/run", h.HandleRun)
	group.Get("/status", h.HandleStatus)
	group.Get("/reports", h.HandleReports)
	group.Get("/reports/:name", h.HandleReport)
}

// HandleRun triggers a reconciliation run and blocks until it completes.
// Partial failures return 200 with the failure detail attached: operators
// must be able to see both the synced count and the causes of the rest.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.Run(c.Context())
	if errors.Is(err, ErrRunInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if result == nil {
		// Fatal: configuration or baseline fetch failed before any work.
		l.Error("Sync run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	response := fiber.Map{
		"summary": result.Summary(),
		"result":  result,
	}
	if err != nil {
		response["error"] = err.Error()
		l.Warn("Sync run partially failed", zap.Int("synced", result.Synced), zap.Int("failures", len(result.Failures)))
	}
	return c.JSON(response)
}

// HandleReports lists the archived run reports.
func (h *Handler) HandleReports(c *fiber.Ctx) error {
	reports, err := h.service.Reports(c.Context())
	if errors.Is(err, ErrArchivalDisabled) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to list run reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"reports": reports})
}

// HandleReport serves one archived run report as stored.
func (h *Handler) HandleReport(c *fiber.Ctx) error {
	data, err := h.service.Report(c.Context(), c.Params("name"))
	if errors.Is(err, ErrArchivalDisabled) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to fetch run report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// HandleStatus returns the last run's report.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	last := h.service.LastResult()
	if last == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no run has completed yet",
		})
	}
	return c.JSON(fiber.Map{
		"summary": last.Summary(),
		"result":  last,
	})
}
