package handler

import (
	"errors"
	"net/http"

	"scan-station/internal/core/logger"
	"scan-station/internal/features/orders/domain"
	"scan-station/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests related to orders and the dispatch
// worklist.
type OrderHandler struct {
	// service is the OrderService instance.
	service *service.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s *service.OrderService) *OrderHandler {
	return &OrderHandler{
		service: s,
	}
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
}

// GetOrder handles the request to retrieve a full order snapshot.
// @Summary Get Order by number
// @Description Fetch the full order snapshot by display number.
// @Produce json
// @Param name path string true "Order number, e.g. 1013"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{name} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	name := c.Params("name")

	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}

	if name == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Order number is required",
			RayID:   rayID,
		})
	}

	order, err := h.service.GetOrder(c.UserContext(), name)
	if err != nil {
		logger.Get().Error("Failed to fetch order",
			zap.String("order", name),
			zap.String("ray_id", rayID),
			zap.Error(err),
		)

		status := http.StatusInternalServerError
		msg := err.Error()

		if errors.Is(err, domain.ErrOrderNotFound) {
			status = http.StatusNotFound
			msg = "Order not found"
		}

		return c.Status(status).JSON(ErrorResponse{
			Message: msg,
			RayID:   rayID,
		})
	}

	return c.Status(http.StatusOK).JSON(order)
}

// GetOpenOrders handles the request for the dispatch worklist.
// @Summary List open orders
// @Description Returns the cached open-order worklist, newest first.
// @Produce json
// @Success 200 {object} service.Worklist
// @Failure 502 {object} ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) GetOpenOrders(c *fiber.Ctx) error {
	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}

	list, err := h.service.OpenOrders(c.UserContext())
	if err != nil {
		logger.Get().Error("Failed to load worklist",
			zap.String("ray_id", rayID),
			zap.Error(err),
		)
		return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	return c.Status(http.StatusOK).JSON(list)
}

// RefreshOpenOrders handles a forced worklist refresh.
// @Summary Refresh open orders
// @Description Forces a live fetch of the open-order worklist.
// @Produce json
// @Success 200 {object} service.Worklist
// @Failure 502 {object} ErrorResponse
// @Router /orders/refresh [post]
func (h *OrderHandler) RefreshOpenOrders(c *fiber.Ctx) error {
	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}

	list, err := h.service.Refresh(c.UserContext())
	if err != nil {
		logger.Get().Error("Worklist refresh failed",
			zap.String("ray_id", rayID),
			zap.Error(err),
		)
		return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	return c.Status(http.StatusOK).JSON(list)
}
