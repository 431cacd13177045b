package testsupport

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
)

// JPEG renders a gradient image of the given size as JPEG bytes.
func JPEG(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// PNG renders a gradient image of the given size as PNG bytes.
func PNG(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(width, height)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func gradient(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+4]
			px[0] = uint8(x * 255 / max(width, 1))
			px[1] = uint8(y * 255 / max(height, 1))
			px[2] = 128
			px[3] = 255
		}
	}
	return img
}
