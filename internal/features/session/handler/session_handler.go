package handler

import (
	"errors"
	"net/http"

	bookingdomain "scan-station/internal/features/booking/domain"
	ordersdomain "scan-station/internal/features/orders/domain"
	"scan-station/internal/features/session/domain"
	"scan-station/internal/features/session/service"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler handles HTTP requests for the scan session.
type SessionHandler struct {
	// service is the SessionService instance.
	service *service.SessionService
}

// NewSessionHandler creates a new instance of SessionHandler.
func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{
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

// rayID extracts the request id set by the requestid middleware.
func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return "unknown"
}

// scanStatus maps session and booking errors to HTTP statuses. Scan-level
// rejections are client errors the operator corrects at the station; booking
// workflow failures are upstream faults.
func scanStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedScan),
		errors.Is(err, domain.ErrCountMismatch),
		errors.Is(err, domain.ErrNoActiveSession):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyBooked),
		errors.Is(err, domain.ErrDifferentOrder),
		errors.Is(err, domain.ErrBookingInFlight):
		return http.StatusConflict
	case errors.Is(err, ordersdomain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, bookingdomain.ErrMissingPlaceCode),
		errors.Is(err, bookingdomain.ErrMissingAddress),
		errors.Is(err, bookingdomain.ErrQuoteFailed),
		errors.Is(err, bookingdomain.ErrBookingFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ScanRequest is one raw scan event from the barcode reader.
type ScanRequest struct {
	// Code is the raw scanned barcode.
	Code string `json:"code"`
}

// Scan godoc
// @Summary Handle a parcel scan
// @Description Consumes one raw barcode scan. May start a session, accumulate a parcel, or trigger a booking for tag-counted orders.
// @Accept json
// @Produce json
// @Param request body ScanRequest true "Raw scan"
// @Success 200 {object} service.ScanResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /scan [post]
func (h *SessionHandler) Scan(c *fiber.Ctx) error {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	result, err := h.service.HandleScan(c.UserContext(), req.Code)
	if err != nil {
		return c.Status(scanStatus(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(result)
}

// Book godoc
// @Summary Book the active session now
// @Description Explicit operator booking trigger. The scanned count must match the expected count.
// @Produce json
// @Success 200 {object} service.ScanResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /book [post]
func (h *SessionHandler) Book(c *fiber.Ctx) error {
	result, err := h.service.BookNow(c.UserContext())
	if err != nil {
		return c.Status(scanStatus(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(result)
}

// Reset godoc
// @Summary Emergency session reset
// @Description Cancels timers and discards all session state. The booked ledger and pack plans are untouched.
// @Produce json
// @Success 200 {object} domain.Session
// @Router /reset [post]
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.service.Reset())
}

// GetSession godoc
// @Summary Get the current scan session
// @Produce json
// @Success 200 {object} domain.Session
// @Router /session [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.service.Session())
}

// OverridesRequest carries operator booking overrides.
type OverridesRequest struct {
	// PlaceCode pins the carrier routing code; null clears the override.
	PlaceCode *int `json:"place_code"`
	// Service pins the carrier service; empty clears the override.
	Service string `json:"service"`
}

// PutOverrides godoc
// @Summary Set booking overrides on the active session
// @Accept json
// @Produce json
// @Param request body OverridesRequest true "Overrides"
// @Success 200 {object} domain.Session
// @Failure 400 {object} ErrorResponse
// @Router /session/overrides [put]
func (h *SessionHandler) PutOverrides(c *fiber.Ctx) error {
	var req OverridesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	session, err := h.service.SetOverrides(req.PlaceCode, req.Service)
	if err != nil {
		return c.Status(scanStatus(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(session)
}

// ParcelCountRequest declares the operator's expected parcel count.
type ParcelCountRequest struct {
	Count int `json:"count"`
}

// PutParcelCount godoc
// @Summary Declare the manual parcel count
// @Description Sets the operator-declared parcel count. A tag-declared count still takes priority.
// @Accept json
// @Produce json
// @Param request body ParcelCountRequest true "Expected parcel count"
// @Success 200 {object} domain.Session
// @Failure 400 {object} ErrorResponse
// @Router /session/parcel-count [put]
func (h *SessionHandler) PutParcelCount(c *fiber.Ctx) error {
	var req ParcelCountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	session, err := h.service.SetParcelCount(req.Count)
	if err != nil {
		return c.Status(scanStatus(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(session)
}

// ResetLedger godoc
// @Summary Wipe the booked-order ledger
// @Description Operator action. Clears the idempotency ledger so orders can be booked again.
// @Produce json
// @Success 204 "ledger cleared"
// @Failure 500 {object} ErrorResponse
// @Router /ledger/reset [post]
func (h *SessionHandler) ResetLedger(c *fiber.Ctx) error {
	if err := h.service.ResetLedger(c.UserContext()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.SendStatus(http.StatusNoContent)
}
