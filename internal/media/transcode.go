package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

// Derivative is an encoded rendition of one breakpoint.
type Derivative struct {
	Data   []byte
	Width  int
	Height int
}

// Transcoder produces the derivative of a decoded image for one breakpoint.
type Transcoder interface {
	Transcode(ctx context.Context, src image.Image, bp Breakpoint) (Derivative, error)
}

// TranscoderFunc adapts a function to Transcoder.
type TranscoderFunc func(ctx context.Context, src image.Image, bp Breakpoint) (Derivative, error)

func (f TranscoderFunc) Transcode(ctx context.Context, src image.Image, bp Breakpoint) (Derivative, error) {
	return f(ctx, src, bp)
}

// JPEGTranscoder scales with Catmull-Rom and encodes baseline JPEG.
type JPEGTranscoder struct{}

func (JPEGTranscoder) Transcode(ctx context.Context, src image.Image, bp Breakpoint) (Derivative, error) {
	if err := ctx.Err(); err != nil {
		return Derivative{}, err
	}
	scaled := Resize(src, bp)
	if err := ctx.Err(); err != nil {
		return Derivative{}, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: bp.Quality}); err != nil {
		return Derivative{}, fmt.Errorf("encode jpeg: %w", err)
	}
	bounds := scaled.Bounds()
	return Derivative{Data: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// Resize renders src for bp. Without Crop the image is fitted inside the
// target box and never enlarged. With Crop the output is exactly the box:
// the source is scaled to cover it, small sources included, and the centre
// is kept. Transparent pixels are flattened onto white.
func Resize(src image.Image, bp Breakpoint) *image.RGBA {
	bounds := src.Bounds()
	sw, sh := bounds.Dx(), bounds.Dy()

	region := bounds
	var dw, dh int
	if bp.Crop {
		scale := math.Max(float64(bp.Width)/float64(sw), float64(bp.Height)/float64(sh))
		cw := max(1, min(sw, int(math.Round(float64(bp.Width)/scale))))
		ch := max(1, min(sh, int(math.Round(float64(bp.Height)/scale))))
		x0 := bounds.Min.X + (sw-cw)/2
		y0 := bounds.Min.Y + (sh-ch)/2
		region = image.Rect(x0, y0, x0+cw, y0+ch)
		dw, dh = bp.Width, bp.Height
	} else {
		dw, dh = FitInside(sw, sh, bp.Width, bp.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, region, draw.Over, nil)
	return dst
}

// FitInside returns the largest size with the source aspect ratio that fits in
// maxW x maxH without exceeding the source size.
func FitInside(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := math.Min(math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h)), 1)
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, nil
}
