package bbox

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png" // register the PNG decoder

	"github.com/nfnt/resize"
)

// boxColor assigns a stable color per content item so that boxes of
// the same item share a hue across renders.
func boxColor(contentItem string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(contentItem))
	v := h.Sum32()
	return color.RGBA{
		R: uint8(80 + v%160),
		G: uint8(80 + (v>>8)%160),
		B: uint8(80 + (v>>16)%160),
		A: 255,
	}
}

// DrawBoundingBoxes draws the given boxes onto a copy of img with a
// 3px outline.
func DrawBoundingBoxes(img image.Image, boxes []BBox) *image.RGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	const thickness = 3
	for _, box := range boxes {
		if len(box.Coords) != 4 {
			continue
		}
		x, y, w, h := box.Coords[0], box.Coords[1], box.Coords[2], box.Coords[3]
		c := boxColor(box.ContentItem)

		for t := 0; t < thickness; t++ {
			drawRect(canvas, x+t, y+t, x+w-t, y+h-t, c)
		}
	}

	return canvas
}

// drawRect outlines the rectangle (x0,y0)-(x1,y1), clamped to the
// canvas bounds.
func drawRect(canvas *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		setIfInside(canvas, x, y0, c)
		setIfInside(canvas, x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		setIfInside(canvas, x0, y, c)
		setIfInside(canvas, x1, y, c)
	}
}

func setIfInside(canvas *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(canvas.Bounds()) {
		canvas.Set(x, y, c)
	}
}

// RenderPreview decodes a page image, draws the boxes and returns a
// JPEG, downscaled to maxWidth when the page scan is wider. Quality is
// the JPEG encoding quality (1-100); 85 is a reasonable default.
func RenderPreview(imageData []byte, boxes []BBox, maxWidth, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	annotated := DrawBoundingBoxes(img, boxes)

	var out image.Image = annotated
	originalWidth := annotated.Bounds().Dx()
	if maxWidth > 0 && originalWidth > maxWidth {
		aspectRatio := float64(annotated.Bounds().Dy()) / float64(originalWidth)
		newHeight := uint(float64(maxWidth) * aspectRatio)
		out = resize.Resize(uint(maxWidth), newHeight, annotated, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode to jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
