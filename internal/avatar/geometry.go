package avatar

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

type Unit string

const (
	UnitPixel   Unit = "px"
	UnitPercent Unit = "%"
)

// initialCropPercent is the share of the display width covered by a fresh crop.
const initialCropPercent = 90

const (
	MinScale    = 0.5
	MaxScale    = 3.0
	MinRotation = -180.0
	MaxRotation = 180.0
)

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CropRegion is a rectangle over the displayed image, either in display
// pixels or in percent of the display size.
type CropRegion struct {
	Unit   Unit    `json:"unit"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r CropRegion) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r CropRegion) Aspect() float64 {
	if r.Height == 0 {
		return 0
	}
	return r.Width / r.Height
}

func (r CropRegion) Validate() error {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidCrop)
		}
	}
	if r.Unit != "" && r.Unit != UnitPixel && r.Unit != UnitPercent {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidCrop, r.Unit)
	}
	if r.IsEmpty() {
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidCrop)
	}
	return nil
}

// ToPixels converts r to display pixels of media. Regions without a unit are
// treated as pixels.
func (r CropRegion) ToPixels(media Size) CropRegion {
	if r.Unit != UnitPercent {
		r.Unit = UnitPixel
		return r
	}
	return CropRegion{
		Unit:   UnitPixel,
		X:      r.X * media.Width / 100,
		Y:      r.Y * media.Height / 100,
		Width:  r.Width * media.Width / 100,
		Height: r.Height * media.Height / 100,
	}
}

func (r CropRegion) ToPercent(media Size) CropRegion {
	if r.Unit == UnitPercent {
		return r
	}
	if media.Width == 0 || media.Height == 0 {
		return CropRegion{Unit: UnitPercent}
	}
	return CropRegion{
		Unit:   UnitPercent,
		X:      r.X * 100 / media.Width,
		Y:      r.Y * 100 / media.Height,
		Width:  r.Width * 100 / media.Width,
		Height: r.Height * 100 / media.Height,
	}
}

// InitialCrop returns the centered region a new session starts with: 90% of
// the media width at the given aspect, shrunk to fit the media height.
func InitialCrop(aspect float64, media Size) CropRegion {
	return centerCrop(makeAspectCrop(initialCropPercent, aspect, media), media)
}

func makeAspectCrop(widthPercent, aspect float64, media Size) CropRegion {
	c := CropRegion{Unit: UnitPixel, Width: media.Width * widthPercent / 100}
	c.Height = c.Width / aspect
	if c.Height > media.Height {
		c.Height = media.Height
		c.Width = c.Height * aspect
	}
	return c
}

func centerCrop(c CropRegion, media Size) CropRegion {
	c.X = (media.Width - c.Width) / 2
	c.Y = (media.Height - c.Height) / 2
	return c
}

// clampCrop grows r to the minimum size, then pulls it inside media. Minimums
// larger than the media itself are capped at the media size.
func clampCrop(r CropRegion, media Size, minWidth, minHeight float64) CropRegion {
	minWidth = math.Min(minWidth, media.Width)
	minHeight = math.Min(minHeight, media.Height)

	r.Width = clamp(r.Width, minWidth, media.Width)
	r.Height = clamp(r.Height, minHeight, media.Height)
	r.X = clamp(r.X, 0, media.Width-r.Width)
	r.Y = clamp(r.Y, 0, media.Height-r.Height)
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

type Transform struct {
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

var Identity = Transform{Scale: 1, Rotation: 0}

func (t Transform) IsIdentity() bool {
	return t.Scale == 1 && math.Mod(t.Rotation, 360) == 0
}

// InPracticalRange reports whether t stays within the ranges an interactive
// editor offers. Values outside it are still rendered.
func (t Transform) InPracticalRange() bool {
	return t.Scale >= MinScale && t.Scale <= MaxScale &&
		t.Rotation >= MinRotation && t.Rotation <= MaxRotation
}

func (t Transform) Validate() error {
	if math.IsNaN(t.Scale) || math.IsInf(t.Scale, 0) || t.Scale <= 0 {
		return fmt.Errorf("%w: scale must be a positive number, got %v", ErrInvalidTransform, t.Scale)
	}
	if math.IsNaN(t.Rotation) || math.IsInf(t.Rotation, 0) {
		return fmt.Errorf("%w: rotation must be finite", ErrInvalidTransform)
	}
	return nil
}

// OutputSize returns the pixel size of the rendered crop: the display-space
// crop mapped to natural pixels and multiplied by dpr.
func OutputSize(crop CropRegion, src *SourceImage, dpr float64) (int, int) {
	sx, sy := src.ScaleFactors()
	w := int(math.Round(crop.Width * dpr * sx))
	h := int(math.Round(crop.Height * dpr * sy))
	return w, h
}

// compositeMatrix maps natural source pixels onto the output surface:
//
//	dpr · T(-crop) · T(center) · R(rotation) · S(scale) · T(-center)
//
// Rotation and scale pivot on the image center, so the identity transform
// reduces to a pure translation by -crop.
func compositeMatrix(crop CropRegion, center Size, t Transform, dpr float64) f64.Aff3 {
	rad := t.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)
	if math.Mod(t.Rotation, 360) == 0 {
		sin, cos = 0, 1
	}

	a, b := t.Scale*cos, -t.Scale*sin
	d, e := t.Scale*sin, t.Scale*cos

	// Pivot terms first so that they cancel exactly for the identity.
	tx := (center.Width - (a*center.Width + b*center.Height)) - crop.X
	ty := (center.Height - (d*center.Width + e*center.Height)) - crop.Y

	return f64.Aff3{
		dpr * a, dpr * b, dpr * tx,
		dpr * d, dpr * e, dpr * ty,
	}
}
