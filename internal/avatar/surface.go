package avatar

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Surface renders src onto a fresh width×height bitmap, mapping source
// coordinates through m. It plays the role of an offscreen canvas.
type Surface interface {
	Draw(src image.Image, sr image.Rectangle, width, height int, m f64.Aff3) (*image.RGBA, error)
}

// RasterSurface draws in memory with an x/image/draw interpolator.
type RasterSurface struct {
	Interpolator draw.Interpolator
	// MaxPixels bounds width*height of a single surface; 0 disables the check.
	MaxPixels int64
}

func NewRasterSurface(maxPixels int64) *RasterSurface {
	return &RasterSurface{
		Interpolator: draw.CatmullRom,
		MaxPixels:    maxPixels,
	}
}

func (s *RasterSurface) Draw(src image.Image, sr image.Rectangle, width, height int, m f64.Aff3) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceUnavailable, width, height)
	}
	if s.MaxPixels > 0 && int64(width)*int64(height) > s.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSurfaceUnavailable, width, height, s.MaxPixels)
	}

	interp := s.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	interp.Transform(dst, m, src, sr, draw.Src, nil)
	return dst, nil
}
