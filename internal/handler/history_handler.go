package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/middleware"
	"github.com/noah-isme/gema-grader/internal/service"
	"github.com/noah-isme/gema-grader/internal/utils"
)

// HistoryHandler exposes the local and per-user grading history.
type HistoryHandler struct {
	service service.HistoryService
	logger  zerolog.Logger
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(service service.HistoryService, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger.With().Str("component", "history_handler").Logger(),
	}
}

// RegisterLocal wires the shared history routes.
func (h *HistoryHandler) RegisterLocal(router fiber.Router) {
	router.Get("", h.listLocal)
	router.Delete("", h.clearLocal)
	router.Delete("/:id", h.deleteLocal)
}

// RegisterCloud wires the per-user history routes. They require an authenticated identity.
func (h *HistoryHandler) RegisterCloud(router fiber.Router) {
	guard := middleware.AuthOptions{RequireIdentity: true}
	router.Get("", middleware.WithAuth(h.listCloud, guard))
	router.Delete("/:id", middleware.WithAuth(h.deleteCloud, guard))
}

func (h *HistoryHandler) listLocal(c *fiber.Ctx) error {
	items, err := h.service.ListLocal(c.UserContext())
	if err != nil {
		return h.handleError(c, err, "list local history failed")
	}
	return utils.OK(c, dto.HistoryListResponse{Items: nonNil(items)})
}

func (h *HistoryHandler) deleteLocal(c *fiber.Ctx) error {
	items, err := h.service.DeleteLocal(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err, "delete local history failed")
	}
	return utils.OK(c, dto.HistoryListResponse{Items: nonNil(items)})
}

func (h *HistoryHandler) clearLocal(c *fiber.Ctx) error {
	if err := h.service.ClearLocal(c.UserContext()); err != nil {
		return h.handleError(c, err, "clear local history failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HistoryHandler) listCloud(c *fiber.Ctx) error {
	items, err := h.service.ListCloud(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return h.handleError(c, err, "list cloud history failed")
	}
	return utils.OK(c, dto.HistoryListResponse{Items: nonNil(items)})
}

func (h *HistoryHandler) deleteCloud(c *fiber.Ctx) error {
	if err := h.service.DeleteCloud(c.UserContext(), middleware.Identity(c), c.Params("id")); err != nil {
		return h.handleError(c, err, "delete cloud history failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HistoryHandler) handleError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrHistoryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "history entry not found")
	case errors.Is(err, service.ErrIdentityRequired):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrHistoryUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "history store unavailable")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func nonNil(items []dto.HistoryEntry) []dto.HistoryEntry {
	if items == nil {
		return []dto.HistoryEntry{}
	}
	return items
}
