package clips

import (
	"context"
	"image"
	"image/color"

	"github.com/snapetech/clipgen/internal/content"
)

// eightRectsVideo is a short 4x2 grid animation where one cell lights up per frame.
var eightRectsVideo = Video{Width: 320, Height: 240, FPS: 30, Frames: 32, BitRate: 2_000_000}

var rectPalette = [8]color.RGBA{
	{0xff, 0x00, 0x00, 0xff},
	{0xff, 0x80, 0x00, 0xff},
	{0xff, 0xff, 0x00, 0xff},
	{0x00, 0xff, 0x00, 0xff},
	{0x00, 0xff, 0xff, 0xff},
	{0x00, 0x00, 0xff, 0xff},
	{0x80, 0x00, 0xff, 0xff},
	{0xff, 0x00, 0xff, 0xff},
}

// EightRectsFactory builds gen-eight-rects.mp4.
type EightRectsFactory struct {
	enc Encoder
}

// NewEightRects returns the eight-rects factory encoding with enc.
func NewEightRects(enc Encoder) *EightRectsFactory { return &EightRectsFactory{enc: enc} }

func (f *EightRectsFactory) Create(ctx context.Context, dest string, progress content.ProgressFunc) (content.Artifact, error) {
	v := eightRectsVideo
	if err := render(ctx, f.enc, dest, v, drawEightRects, progress); err != nil {
		return content.Artifact{}, content.GenerationError{Cause: err}
	}
	return f.Describe(), nil
}

func (f *EightRectsFactory) Describe() content.Artifact {
	return content.Artifact{Frames: eightRectsVideo.Frames, Duration: eightRectsVideo.Duration()}
}

// rectCell returns the bounds of grid cell i (0-7, row-major) in a w x h frame.
func rectCell(i, w, h int) image.Rectangle {
	cw, ch := w/4, h/2
	x, y := (i%4)*cw, (i/4)*ch
	return image.Rect(x, y, x+cw, y+ch)
}

func drawEightRects(img *image.RGBA, n int) {
	b := img.Bounds()
	lit := n % len(rectPalette)
	for i, c := range rectPalette {
		if i != lit {
			c = scale(c, 1, 4)
		}
		fill(img, rectCell(i, b.Dx(), b.Dy()), c)
	}
}
