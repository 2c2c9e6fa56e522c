package handler

import (
	"errors"
	"net/http"

	"scan-station/internal/features/labels/domain"

	"github.com/gofiber/fiber/v2"
)

// LabelHandler serves barcode previews for operator label checks.
type LabelHandler struct{}

// NewLabelHandler creates a new LabelHandler.
func NewLabelHandler() *LabelHandler {
	return &LabelHandler{}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// GetBarcode godoc
// @Summary Render a Code 128 barcode
// @Description Renders the given text as a Code 128B barcode SVG.
// @Tags labels
// @Produce image/svg+xml
// @Param code path string true "Text to encode"
// @Param height query int false "Bar height in SVG units" default(80)
// @Success 200 {string} string "SVG document"
// @Failure 400 {object} ErrorResponse
// @Router /labels/barcode/{code} [get]
func (h *LabelHandler) GetBarcode(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "code is required",
			RayID:   rayID(c),
		})
	}

	height := c.QueryInt("height", 0)

	svg, err := domain.RenderSVG(code, height)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedChar) {
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Message: err.Error(),
				RayID:   rayID(c),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(svg)
}

// rayID extracts the request id set by the requestid middleware.
func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return "unknown"
}
