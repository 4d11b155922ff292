package ui2d

import (
	"image"
	"image/draw"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Printable ASCII range baked into the atlas.
const (
	firstGlyph = 32
	lastGlyph  = 126
	atlasCols  = 16
)

// Font is a fixed-width bitmap font atlas rasterised from basicfont.Face7x13.
// Text is single-line ASCII.
type Font struct {
	texture uint32
	glyphW  int
	glyphH  int
	atlasW  int
	atlasH  int
}

// NewFont rasterises the glyph atlas and uploads it as an RGBA texture.
func NewFont() *Font {
	face := basicfont.Face7x13
	f := &Font{
		glyphW: face.Advance,
		glyphH: face.Height,
	}
	// One extra cell after the glyphs is filled white for solid quads
	cells := lastGlyph - firstGlyph + 2
	rows := (cells + atlasCols - 1) / atlasCols
	f.atlasW = atlasCols * f.glyphW
	f.atlasH = rows * f.glyphH

	img := image.NewRGBA(image.Rect(0, 0, f.atlasW, f.atlasH))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	d := font.Drawer{Dst: img, Src: image.White, Face: face}
	for c := firstGlyph; c <= lastGlyph; c++ {
		x, y := f.cell(c - firstGlyph)
		d.Dot = fixed.P(x, y+face.Ascent)
		d.DrawString(string(rune(c)))
	}
	wx, wy := f.cell(lastGlyph - firstGlyph + 1)
	draw.Draw(img, image.Rect(wx, wy, wx+f.glyphW, wy+f.glyphH), image.White, image.Point{}, draw.Src)

	gl.GenTextures(1, &f.texture)
	gl.BindTexture(gl.TEXTURE_2D, f.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(f.atlasW), int32(f.atlasH), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return f
}

// TextureID returns the atlas texture.
func (f *Font) TextureID() uint32 {
	return f.texture
}

// GlyphSize returns the cell size of one glyph in pixels.
func (f *Font) GlyphSize() (int, int) {
	return f.glyphW, f.glyphH
}

// GetGlyphUV returns the atlas UV rectangle for a character. Characters
// outside the atlas render as '?'.
func (f *Font) GetGlyphUV(c rune) (u0, v0, u1, v1 float32) {
	if c < firstGlyph || c > lastGlyph {
		c = '?'
	}
	x, y := f.cell(int(c - firstGlyph))
	u0 = float32(x) / float32(f.atlasW)
	v0 = float32(y) / float32(f.atlasH)
	u1 = float32(x+f.glyphW) / float32(f.atlasW)
	v1 = float32(y+f.glyphH) / float32(f.atlasH)
	return
}

// WhiteUV returns a texture coordinate inside the opaque white cell.
func (f *Font) WhiteUV() (float32, float32) {
	x, y := f.cell(lastGlyph - firstGlyph + 1)
	return (float32(x) + float32(f.glyphW)/2) / float32(f.atlasW),
		(float32(y) + float32(f.glyphH)/2) / float32(f.atlasH)
}

func (f *Font) cell(i int) (int, int) {
	return (i % atlasCols) * f.glyphW, (i / atlasCols) * f.glyphH
}

// MeasureText returns the size of a single-line string.
func (f *Font) MeasureText(text string, scale float32) (float32, float32) {
	n := 0
	for range text {
		n++
	}
	return float32(n*f.glyphW) * scale, float32(f.glyphH) * scale
}

// Close releases the atlas texture.
func (f *Font) Close() {
	if f.texture != 0 {
		gl.DeleteTextures(1, &f.texture)
		f.texture = 0
	}
}
