package clips

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/snapetech/clipgen/internal/content"
)

// drawFunc paints frame n of a clip into img.
type drawFunc func(img *image.RGBA, n int)

// render draws every frame of v with paint, feeds them to enc and reports
// per-frame progress, finishing with 100.
func render(ctx context.Context, enc Encoder, dest string, v Video, paint drawFunc, progress content.ProgressFunc) error {
	w, err := enc.Open(ctx, dest, v)
	if err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
	for n := 0; n < v.Frames; n++ {
		if err := ctx.Err(); err != nil {
			w.Close()
			return err
		}
		paint(img, n)
		if err := w.WriteFrame(img); err != nil {
			if cerr := w.Close(); cerr != nil {
				return cerr
			}
			return fmt.Errorf("write frame %d: %w", n, err)
		}
		progress(n * 100 / v.Frames)
	}
	if err := w.Close(); err != nil {
		return err
	}
	progress(100)
	return nil
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// scale multiplies the RGB channels of c by num/den.
func scale(c color.RGBA, num, den int) color.RGBA {
	return color.RGBA{
		R: uint8(int(c.R) * num / den),
		G: uint8(int(c.G) * num / den),
		B: uint8(int(c.B) * num / den),
		A: 0xff,
	}
}
