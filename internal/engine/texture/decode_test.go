package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	src.Set(1, 2, color.NRGBA{R: 255, A: 255})

	img, err := Decode(encodePNG(t, src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 3 {
		t.Errorf("expected 2x3, got %v", img.Bounds())
	}
	if got := img.RGBAAt(1, 2); got.R != 255 || got.A != 255 {
		t.Errorf("expected red pixel, got %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestToRGBAOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.RGBA{G: 200, A: 255})

	out := ToRGBA(src)
	if out.Rect.Min != (image.Point{}) {
		t.Errorf("expected origin-anchored image, got %v", out.Rect)
	}
	if out.RGBAAt(0, 0).G != 200 {
		t.Errorf("expected pixel to move to origin, got %v", out.RGBAAt(0, 0))
	}
}

func TestFlipVertical(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{R: 10, A: 255})
	img.Set(0, 1, color.RGBA{R: 20, A: 255})

	out := FlipVertical(img)
	if out.RGBAAt(0, 0).R != 20 || out.RGBAAt(0, 1).R != 10 {
		t.Errorf("rows not swapped: %v %v", out.RGBAAt(0, 0), out.RGBAAt(0, 1))
	}
	if img.RGBAAt(0, 0).R != 10 {
		t.Error("source must not be modified")
	}
}
