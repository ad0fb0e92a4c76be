package bbox

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDrawBoundingBoxes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	boxes := []BBox{
		{ContentItem: "GDL-1900-01-02-a-i0001", Coords: []int{10, 10, 20, 20}},
		// out-of-bounds coordinates are clamped, not fatal
		{ContentItem: "GDL-1900-01-02-a-i0002", Coords: []int{40, 40, 30, 30}},
	}

	out := DrawBoundingBoxes(img, boxes)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds(), out.Bounds())

	// the outline color differs from the untouched background
	_, _, _, alpha := out.At(10, 10).RGBA()
	assert.NotZero(t, alpha)
}

func TestBoxColorIsStablePerContentItem(t *testing.T) {
	a := boxColor("GDL-1900-01-02-a-i0001")
	b := boxColor("GDL-1900-01-02-a-i0001")
	other := boxColor("GDL-1900-01-02-a-i0002")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
}

func TestRenderPreviewResizesWideImages(t *testing.T) {
	data := encodeTestImage(t, 400, 200)
	boxes := []BBox{{ContentItem: "ci", Coords: []int{10, 10, 50, 50}}}

	out, err := RenderPreview(data, boxes, 200, 80)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())

	// narrow images keep their size
	out, err = RenderPreview(data, boxes, 800, 80)
	require.NoError(t, err)
	decoded, err = jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
}

func TestRenderPreviewRejectsGarbage(t *testing.T) {
	_, err := RenderPreview([]byte("not an image"), nil, 200, 80)
	assert.Error(t, err)
}
