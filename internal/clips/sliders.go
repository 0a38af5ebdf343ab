package clips

import (
	"context"
	"image"
	"image/color"

	"github.com/snapetech/clipgen/internal/content"
)

// slidersVideo sweeps a vertical and a horizontal bar across the frame over a shifting background.
var slidersVideo = Video{Width: 480, Height: 480, FPS: 30, Frames: 240, BitRate: 5_000_000}

const sliderBar = 24

var (
	sliderVertical   = color.RGBA{0x00, 0xd0, 0x00, 0xff}
	sliderHorizontal = color.RGBA{0x20, 0x40, 0xff, 0xff}
)

// SlidersFactory builds gen-sliders.mp4.
type SlidersFactory struct {
	enc Encoder
}

// NewSliders returns the sliders factory encoding with enc.
func NewSliders(enc Encoder) *SlidersFactory { return &SlidersFactory{enc: enc} }

func (f *SlidersFactory) Create(ctx context.Context, dest string, progress content.ProgressFunc) (content.Artifact, error) {
	v := slidersVideo
	paint := func(img *image.RGBA, n int) { drawSliders(img, n, v.Frames) }
	if err := render(ctx, f.enc, dest, v, paint, progress); err != nil {
		return content.Artifact{}, content.GenerationError{Cause: err}
	}
	return f.Describe(), nil
}

func (f *SlidersFactory) Describe() content.Artifact {
	return content.Artifact{Frames: slidersVideo.Frames, Duration: slidersVideo.Duration()}
}

// sliderPos returns the leading edge of a bar at frame n of frames within span pixels.
func sliderPos(n, frames, span int) int {
	if frames <= 1 {
		return 0
	}
	return n * (span - sliderBar) / (frames - 1)
}

func drawSliders(img *image.RGBA, n, frames int) {
	b := img.Bounds()
	g := uint8(0x20 + (n*0x60)/max(frames, 1))
	fill(img, b, color.RGBA{g, g, g, 0xff})

	x := sliderPos(n, frames, b.Dx())
	fill(img, image.Rect(x, 0, x+sliderBar, b.Dy()), sliderVertical)

	y := sliderPos(frames-1-n, frames, b.Dy())
	fill(img, image.Rect(0, y, b.Dx(), y+sliderBar), sliderHorizontal)
}
