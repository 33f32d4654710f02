package avatar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/math/f64"
)

func TestInitialCrop(t *testing.T) {
	tests := []struct {
		name   string
		aspect float64
		media  Size
	}{
		{"square on square", 1, Size{1000, 1000}},
		{"square on landscape", 1, Size{1600, 900}},
		{"square on portrait", 1, Size{600, 1200}},
		{"wide on square", 16.0 / 9, Size{500, 500}},
		{"wide on short strip", 4, Size{800, 100}},
		{"tall on landscape", 0.5, Size{1000, 300}},
		{"fractional display", 1, Size{333.3, 250.7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := InitialCrop(tt.aspect, tt.media)

			assert.Equal(t, UnitPixel, c.Unit)
			assert.InDelta(t, tt.aspect, c.Aspect(), 1e-9)
			assert.LessOrEqual(t, c.Width, 0.9*tt.media.Width+1e-9)
			assert.LessOrEqual(t, c.Height, tt.media.Height+1e-9)
			assert.InDelta(t, tt.media.Width/2, c.X+c.Width/2, 1e-9)
			assert.InDelta(t, tt.media.Height/2, c.Y+c.Height/2, 1e-9)
			assert.GreaterOrEqual(t, c.X, 0.0)
			assert.GreaterOrEqual(t, c.Y, 0.0)
		})
	}
}

func TestCropRegion_PercentConversion(t *testing.T) {
	media := Size{Width: 400, Height: 200}
	px := CropRegion{Unit: UnitPixel, X: 40, Y: 50, Width: 200, Height: 100}

	pct := px.ToPercent(media)
	assert.Equal(t, CropRegion{Unit: UnitPercent, X: 10, Y: 25, Width: 50, Height: 50}, pct)
	assert.Equal(t, px, pct.ToPixels(media))
	assert.Equal(t, pct, pct.ToPercent(media))

	assert.Equal(t, CropRegion{Unit: UnitPercent}, px.ToPercent(Size{}))
}

func TestClampCrop(t *testing.T) {
	media := Size{Width: 500, Height: 400}

	tests := []struct {
		name string
		in   CropRegion
		want CropRegion
	}{
		{
			name: "inside is untouched",
			in:   CropRegion{X: 10, Y: 20, Width: 250, Height: 250},
			want: CropRegion{X: 10, Y: 20, Width: 250, Height: 250},
		},
		{
			name: "grown to minimum",
			in:   CropRegion{X: 10, Y: 20, Width: 50, Height: 80},
			want: CropRegion{X: 10, Y: 20, Width: 200, Height: 200},
		},
		{
			name: "pulled inside",
			in:   CropRegion{X: 450, Y: 350, Width: 200, Height: 200},
			want: CropRegion{X: 300, Y: 200, Width: 200, Height: 200},
		},
		{
			name: "negative origin",
			in:   CropRegion{X: -30, Y: -1, Width: 300, Height: 300},
			want: CropRegion{X: 0, Y: 0, Width: 300, Height: 300},
		},
		{
			name: "larger than media",
			in:   CropRegion{X: 5, Y: 5, Width: 900, Height: 900},
			want: CropRegion{X: 0, Y: 0, Width: 500, Height: 400},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampCrop(tt.in, media, 200, 200))
		})
	}

	// Minimums above the media size shrink to it.
	got := clampCrop(CropRegion{Width: 10, Height: 10}, Size{Width: 120, Height: 90}, 200, 200)
	assert.Equal(t, CropRegion{Width: 120, Height: 90}, got)
}

func TestTransform(t *testing.T) {
	assert.True(t, Identity.IsIdentity())
	assert.True(t, Transform{Scale: 1, Rotation: 360}.IsIdentity())
	assert.False(t, Transform{Scale: 1, Rotation: 90}.IsIdentity())
	assert.False(t, Transform{Scale: 1.01}.IsIdentity())

	assert.True(t, Transform{Scale: MinScale, Rotation: MaxRotation}.InPracticalRange())
	assert.False(t, Transform{Scale: 0.25}.InPracticalRange())
	assert.False(t, Transform{Scale: 1, Rotation: -181}.InPracticalRange())
}

func TestCompositeMatrix(t *testing.T) {
	crop := CropRegion{X: 20, Y: 30, Width: 100, Height: 100}
	center := Size{Width: 150, Height: 75}

	assert.Equal(t, f64.Aff3{1, 0, -20, 0, 1, -30}, compositeMatrix(crop, center, Identity, 1))
	assert.Equal(t, f64.Aff3{2, 0, -40, 0, 2, -60}, compositeMatrix(crop, center, Identity, 2))
	assert.Equal(t, f64.Aff3{1, 0, -20, 0, 1, -30}, compositeMatrix(crop, center, Transform{Scale: 1, Rotation: -360}, 1))

	// The image center is a fixed point of scale and rotation.
	m := compositeMatrix(CropRegion{}, center, Transform{Scale: 2.5, Rotation: 33}, 1)
	x := m[0]*center.Width + m[1]*center.Height + m[2]
	y := m[3]*center.Width + m[4]*center.Height + m[5]
	assert.InDelta(t, center.Width, x, 1e-9)
	assert.InDelta(t, center.Height, y, 1e-9)
}
