package diagram

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"paperscope/internal/util"
)

// FallbackInput carries everything the deterministic renderer needs. It is
// used whenever the external synthesis service is unavailable or fails, so
// a requested diagram always yields a viewable artifact.
type FallbackInput struct {
	DiagramType   string
	Title         string
	SourceContext string
	ErrorText     string
	Sections      int
	Equations     int
	Tables        int
	Figures       int
}

const (
	canvasW = 1600
	canvasH = 900

	boxW = 250
	boxH = 130
)

var (
	colBackground = color.RGBA{248, 249, 250, 255}
	colBox        = color.RGBA{227, 236, 250, 255}
	colBoxBorder  = color.RGBA{70, 110, 180, 255}
	colArrow      = color.RGBA{90, 90, 100, 255}
	colText       = color.RGBA{25, 25, 30, 255}
	colMuted      = color.RGBA{110, 110, 120, 255}
	colError      = color.RGBA{160, 60, 60, 255}
)

// RenderFallback draws the five-stage box-and-arrow diagram as a PNG.
func RenderFallback(path string, in FallbackInput) error {
	img := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	fillRect(img, img.Bounds(), colBackground)

	drawTextCentered(img, canvasW/2, 60, colText, truncate(fmt.Sprintf("%s diagram (auto-synthesized): %s", titleCase(in.DiagramType), in.Title), 110))
	drawTextCentered(img, canvasW/2, 90, colMuted, truncate(in.SourceContext, 220))

	stages := DeriveStages(in.SourceContext)
	total := len(stages)
	gap := (canvasW - total*boxW) / (total + 1)
	y := canvasH/2 - boxH/2
	for i, label := range stages {
		x := gap + i*(boxW+gap)
		box := image.Rect(x, y, x+boxW, y+boxH)
		fillRect(img, box, colBox)
		strokeRect(img, box, colBoxBorder)
		drawWrapped(img, x+boxW/2, y+boxH/2-8, boxW-24, colText, label)
		drawTextCentered(img, x+boxW/2, y+boxH+24, colMuted, fmt.Sprintf("stage %d", i+1))
		if i < total-1 {
			drawArrow(img, x+boxW, x+boxW+gap, y+boxH/2)
		}
	}

	stats := fmt.Sprintf("extracted: %d sections | %d equations | %d tables | %d figures",
		in.Sections, in.Equations, in.Tables, in.Figures)
	drawTextCentered(img, canvasW/2, canvasH-90, colMuted, stats)
	if in.ErrorText != "" {
		drawTextCentered(img, canvasW/2, canvasH-50, colError, truncate("synthesis unavailable: "+in.ErrorText, 180))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode fallback png: %w", err)
	}
	return util.WriteBytesAtomic(path, buf.Bytes())
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func drawArrow(img *image.RGBA, x0, x1, y int) {
	for x := x0; x < x1-10; x++ {
		img.SetRGBA(x, y, colArrow)
		img.SetRGBA(x, y+1, colArrow)
	}
	// Triangular head.
	for dx := 0; dx <= 10; dx++ {
		for dy := -dx; dy <= dx; dy++ {
			img.SetRGBA(x1-dx, y+dy, colArrow)
		}
	}
}

func drawText(img *image.RGBA, x, y int, c color.RGBA, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawTextCentered(img *image.RGBA, cx, y int, c color.RGBA, text string) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	drawText(img, cx-w/2, y, c, text)
}

// drawWrapped centers word-wrapped text around (cx, cy) within maxWidth px.
func drawWrapped(img *image.RGBA, cx, cy, maxWidth int, c color.RGBA, text string) {
	face := basicfont.Face7x13
	words := strings.Fields(text)
	var lines []string
	var current string
	for _, w := range words {
		candidate := strings.TrimSpace(current + " " + w)
		if font.MeasureString(face, candidate).Ceil() > maxWidth && current != "" {
			lines = append(lines, current)
			current = w
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	lineHeight := 16
	startY := cy - (len(lines)-1)*lineHeight/2
	for i, line := range lines {
		drawTextCentered(img, cx, startY+i*lineHeight, c, line)
	}
}
