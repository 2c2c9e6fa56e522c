package handler

import (
	"errors"
	"net/http"

	"scan-station/internal/core/logger"
	labelsdomain "scan-station/internal/features/labels/domain"
	"scan-station/internal/features/pipeline/domain"
	"scan-station/internal/features/pipeline/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PipelineHandler handles HTTP requests for pack plans, retries, notes and
// the completed ledger.
type PipelineHandler struct {
	// service is the PipelineService instance.
	service *service.PipelineService
}

// NewPipelineHandler creates a new instance of PipelineHandler.
func NewPipelineHandler(s *service.PipelineService) *PipelineHandler {
	return &PipelineHandler{
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

// GetPlans godoc
// @Summary List active pack plans
// @Description Returns all non-archived pack plans.
// @Produce json
// @Success 200 {array} domain.PackPlan
// @Failure 500 {object} ErrorResponse
// @Router /plans [get]
func (h *PipelineHandler) GetPlans(c *fiber.Ctx) error {
	plans, err := h.service.ActivePlans(c.UserContext())
	if err != nil {
		logger.Get().Error("Failed to list pack plans", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(plans)
}

// GetPlan godoc
// @Summary Get a pack plan
// @Description Returns the pack plan for an order, with milestones and log.
// @Produce json
// @Param order path string true "Order number"
// @Success 200 {object} domain.PackPlan
// @Failure 404 {object} ErrorResponse
// @Router /plans/{order} [get]
func (h *PipelineHandler) GetPlan(c *fiber.Ctx) error {
	plan, err := h.service.Plan(c.UserContext(), c.Params("order"))
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Message: "Pack plan not found",
				RayID:   rayID(c),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(plan)
}

// AllocateRequest is the allocation mutation body.
type AllocateRequest struct {
	// BoxIndex is the 0-based box to adjust.
	BoxIndex int `json:"box_index"`
	// LineItemID is the platform line item id.
	LineItemID int64 `json:"line_item_id"`
	// Delta is the quantity change, negative to remove.
	Delta int `json:"delta"`
}

// Allocate godoc
// @Summary Adjust a box allocation
// @Description Moves line item quantity into or out of a box; increments clamp to the remaining fulfillable quantity.
// @Accept json
// @Produce json
// @Param order path string true "Order number"
// @Param request body AllocateRequest true "Allocation change"
// @Success 200 {object} domain.PackPlan
// @Failure 400 {object} ErrorResponse
// @Router /plans/{order}/allocate [post]
func (h *PipelineHandler) Allocate(c *fiber.Ctx) error {
	var req AllocateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	plan, err := h.service.Allocate(c.UserContext(), c.Params("order"), req.BoxIndex, req.LineItemID, req.Delta)
	if err != nil {
		logger.Get().Error("Allocation failed",
			zap.String("order", c.Params("order")),
			zap.Error(err),
		)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(plan)
}

// RetryStage godoc
// @Summary Retry a pipeline stage
// @Description Re-runs exactly one stage (print, fulfill or notify) off stored booking data.
// @Produce json
// @Param order path string true "Order number"
// @Param stage path string true "Stage to retry" Enums(print, fulfill, notify)
// @Success 200 {object} domain.PackPlan
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /plans/{order}/retry/{stage} [post]
func (h *PipelineHandler) RetryStage(c *fiber.Ctx) error {
	order := c.Params("order")
	stage := c.Params("stage")

	var (
		plan *domain.PackPlan
		err  error
	)
	switch stage {
	case "print":
		plan, err = h.service.RetryPrint(c.UserContext(), order)
	case "fulfill":
		plan, err = h.service.RetryFulfill(c.UserContext(), order)
	case "notify":
		plan, err = h.service.RetryNotify(c.UserContext(), order)
	default:
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Unknown stage: " + stage,
			RayID:   rayID(c),
		})
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrPlanNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, domain.ErrPrerequisiteMissing) {
			status = http.StatusConflict
		}
		return c.Status(status).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(plan)
}

// ParcelLabel is one locally rendered barcode label.
type ParcelLabel struct {
	// Reference is the encoded parcel reference.
	Reference string `json:"reference"`
	// SVG is the rendered barcode document.
	SVG string `json:"svg"`
}

// GetLabels godoc
// @Summary Render local parcel labels
// @Description Renders barcode labels for a booked plan, one per parcel, for when the carrier returned no label document.
// @Produce json
// @Param order path string true "Order number"
// @Success 200 {array} ParcelLabel
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /plans/{order}/labels [get]
func (h *PipelineHandler) GetLabels(c *fiber.Ctx) error {
	plan, err := h.service.Plan(c.UserContext(), c.Params("order"))
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Message: "Pack plan not found",
				RayID:   rayID(c),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	if plan.BookingData == nil {
		return c.Status(http.StatusConflict).JSON(ErrorResponse{
			Message: "Order has no booking yet",
			RayID:   rayID(c),
		})
	}

	labels := make([]ParcelLabel, 0, plan.BookingData.ParcelCount)
	for i := 1; i <= plan.BookingData.ParcelCount; i++ {
		ref := labelsdomain.ParcelReference(plan.BookingData.Waybill, i)
		svg, err := labelsdomain.RenderSVG(ref, 0)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Message: err.Error(),
				RayID:   rayID(c),
			})
		}
		labels = append(labels, ParcelLabel{Reference: ref, SVG: svg})
	}
	return c.Status(http.StatusOK).JSON(labels)
}

// GetCompleted godoc
// @Summary List completed orders
// @Description Returns the capped completed-order ledger, newest first.
// @Produce json
// @Success 200 {array} domain.CompletedEntry
// @Failure 500 {object} ErrorResponse
// @Router /completed [get]
func (h *PipelineHandler) GetCompleted(c *fiber.Ctx) error {
	entries, err := h.service.Completed(c.UserContext())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	if entries == nil {
		entries = []domain.CompletedEntry{}
	}
	return c.Status(http.StatusOK).JSON(entries)
}

// NoteResponse carries a dispatch note.
type NoteResponse struct {
	// Order is the order number the note belongs to.
	Order string `json:"order"`
	// Text is the free-form note body.
	Text string `json:"text"`
}

// GetNote godoc
// @Summary Get a dispatch note
// @Produce json
// @Param order path string true "Order number"
// @Success 200 {object} NoteResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes/{order} [get]
func (h *PipelineHandler) GetNote(c *fiber.Ctx) error {
	order := c.Params("order")
	text, err := h.service.Note(c.UserContext(), order)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(NoteResponse{Order: order, Text: text})
}

// PutNote godoc
// @Summary Set a dispatch note
// @Accept json
// @Produce json
// @Param order path string true "Order number"
// @Param request body NoteResponse true "Note body (order field ignored)"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} ErrorResponse
// @Router /notes/{order} [put]
func (h *PipelineHandler) PutNote(c *fiber.Ctx) error {
	order := c.Params("order")

	var req NoteResponse
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	if err := h.service.SetNote(c.UserContext(), order, req.Text); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}
	return c.Status(http.StatusOK).JSON(NoteResponse{Order: order, Text: req.Text})
}
