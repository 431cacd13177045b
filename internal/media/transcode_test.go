package media_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"

	"github.com/goliatone/go-lodge-cms/internal/media"
)

func TestResizeFitsInsideAndCropsToBox(t *testing.T) {
	cases := []struct {
		name         string
		src          image.Rectangle
		bp           media.Breakpoint
		wantW, wantH int
	}{
		{"large landscape lg", image.Rect(0, 0, 4000, 3000), media.Breakpoint{Label: "lg", Width: 1280, Height: 853, Quality: 80}, 1137, 853},
		{"wide panorama", image.Rect(0, 0, 4000, 1000), media.Breakpoint{Label: "lg", Width: 1280, Height: 853, Quality: 80}, 1280, 320},
		{"small source", image.Rect(0, 0, 200, 100), media.Breakpoint{Label: "xl", Width: 1920, Height: 1280, Quality: 82}, 200, 100},
		{"thumb crop", image.Rect(0, 0, 1000, 500), media.DefaultThumbnail(), 400, 400},
		{"thumb small source", image.Rect(0, 0, 300, 200), media.DefaultThumbnail(), 400, 400},
		{"thumb tiny portrait", image.Rect(0, 0, 40, 90), media.DefaultThumbnail(), 400, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := media.Resize(image.NewRGBA(tc.src), tc.bp)
			if out.Bounds().Dx() != tc.wantW || out.Bounds().Dy() != tc.wantH {
				t.Fatalf("expected %dx%d, got %dx%d", tc.wantW, tc.wantH, out.Bounds().Dx(), out.Bounds().Dy())
			}
		})
	}
}

func TestResizeFlattensTransparencyOntoWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	out := media.Resize(src, media.Breakpoint{Label: "xs", Width: 10, Height: 10, Quality: 70})
	r, g, b, a := out.At(5, 5).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Fatalf("expected opaque white, got %d %d %d %d", r, g, b, a)
	}
}

func TestJPEGTranscoderEncodes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 600))
	derivative, err := media.JPEGTranscoder{}.Transcode(context.Background(), src, media.Breakpoint{Label: "sm", Width: 640, Height: 427, Quality: 75})
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(derivative.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width != derivative.Width || cfg.Height != derivative.Height || cfg.Height > 427 {
		t.Fatalf("unexpected output %dx%d (reported %dx%d)", cfg.Width, cfg.Height, derivative.Width, derivative.Height)
	}
}

func TestJPEGTranscoderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (media.JPEGTranscoder{}).Transcode(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10)), media.DefaultThumbnail()); err == nil {
		t.Fatal("expected cancelled context to stop transcoding")
	}
}
