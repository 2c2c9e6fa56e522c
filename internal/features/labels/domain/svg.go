package domain

import (
	"fmt"
	"strings"
)

const (
	// moduleWidth is the width of a single bar/space module in SVG units.
	moduleWidth = 2
	// quietModules is the quiet-zone padding on each side, in modules.
	quietModules = 10
	// defaultHeight is used when the caller passes a non-positive height.
	defaultHeight = 80
)

// RenderSVG renders text as a Code 128B barcode in a scalable vector graphic.
// Output width is (total pattern bits + 2*quietModules) * moduleWidth.
// Rendering is deterministic: the same text and height always produce the
// same document.
func RenderSVG(text string, height int) (string, error) {
	symbols, err := Encode(text)
	if err != nil {
		return "", err
	}

	if height <= 0 {
		height = defaultHeight
	}

	barModules := 0
	for _, s := range symbols {
		barModules += len(patterns[s])
	}
	totalWidth := (barModules + quietModules*2) * moduleWidth

	var rects strings.Builder
	x := quietModules * moduleWidth
	for _, s := range symbols {
		for _, bit := range patterns[s] {
			if bit == '1' {
				fmt.Fprintf(&rects, `<rect x="%d" y="0" width="%d" height="%d" />`, x, moduleWidth, height)
			}
			x += moduleWidth
		}
	}

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges"><rect width="100%%" height="100%%" fill="#fff" />%s</svg>`,
		totalWidth, height, totalWidth, height, rects.String())

	return svg, nil
}
