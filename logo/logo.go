package logo

import (
	"image"
	"image/gif"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"
)

// DefaultFrameDuration is used for frames that carry no delay
const DefaultFrameDuration = 100 * time.Millisecond

// Animation is a decoded, scaled GIF
type Animation struct {
	Frames    []image.Image
	Durations []time.Duration
}

// Len returns the number of frames
func (a *Animation) Len() int {
	return len(a.Frames)
}

// LoadFile decodes the GIF at path and scales every frame to size x size
func LoadFile(path string, size int) (*Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open logo %s", path)
	}
	defer f.Close()

	return Decode(f, size)
}

// Decode composites every GIF frame onto the logical screen and scales it.
// Frame disposal is honoured so partial frames render like a browser would.
func Decode(r io.Reader, size int) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode logo")
	}
	if len(g.Image) == 0 {
		return nil, errors.New("logo has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	anim := &Animation{}
	for i, frame := range g.Image {
		var previous *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(bounds)
			draw.Draw(previous, bounds, canvas, bounds.Min, draw.Src)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		anim.Frames = append(anim.Frames, scale(canvas, size))

		delay := DefaultFrameDuration
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		anim.Durations = append(anim.Durations, delay)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			draw.Draw(canvas, bounds, previous, bounds.Min, draw.Src)
		}
	}

	return anim, nil
}

func scale(src image.Image, size int) image.Image {
	if size <= 0 {
		size = src.Bounds().Dx()
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
