package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/avatarservice/internal/avatar"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

func form(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestParseJobParams(t *testing.T) {
	p, err := ParseJobParams(form(map[string]string{
		"x": "12.5", "y": "0", "width": "40", "height": "40", "unit": "%",
		"display_width": "640", "scale": "1.25", "rotation": "-45", "dpr": "3",
	}))
	require.NoError(t, err)
	assert.Equal(t, avatar.CropRegion{Unit: avatar.UnitPercent, X: 12.5, Y: 0, Width: 40, Height: 40}, p.Crop)
	assert.Equal(t, 640.0, p.DisplayWidth)
	assert.Zero(t, p.DisplayHeight)
	assert.Equal(t, avatar.Transform{Scale: 1.25, Rotation: -45}, p.Transform)
	assert.Equal(t, 3.0, p.DPR)
}

func TestParseJobParamsDefaults(t *testing.T) {
	p, err := ParseJobParams(form(map[string]string{"x": "1", "y": "2", "width": "3", "height": "4"}))
	require.NoError(t, err)
	assert.Equal(t, avatar.UnitPixel, p.Crop.Unit)
	assert.Equal(t, avatar.Identity, p.Transform)
	assert.Equal(t, 1.0, p.DPR)
}

func TestParseJobParamsErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing height": {"x": "1", "y": "2", "width": "3"},
		"not a number":   {"x": "1", "y": "2", "width": "three", "height": "4"},
		"bad dpr":        {"x": "1", "y": "2", "width": "3", "height": "4", "dpr": "retina"},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJobParams(form(values))
			assert.ErrorIs(t, err, domain.ErrInvalidJob)
		})
	}
}

func TestMapJobToResponseHidesUnfinishedResult(t *testing.T) {
	j := &domain.AvatarJob{ID: "j1", Status: domain.StatusProcessing, AvatarURL: "stale", Width: 10}
	resp := MapJobToResponse(j)
	assert.Empty(t, resp.AvatarURL)
	assert.Zero(t, resp.Width)

	j.MarkAsCompleted("avatars/a.jpg", "https://cdn.test/avatars/a.jpg", 200, 200)
	resp = MapJobToResponse(j)
	assert.Equal(t, "https://cdn.test/avatars/a.jpg", resp.AvatarURL)
	assert.Equal(t, 200, resp.Height)

	assert.Nil(t, MapJobToResponse(nil))
}

func TestMapProfileToResponse(t *testing.T) {
	b := time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC)
	resp := MapProfileToResponse(&domain.Profile{UserID: "u1", Birthday: &b, AvatarURL: "https://cdn.test/a.jpg"})
	assert.Equal(t, "1990-12-10", resp.Birthday)
	assert.Equal(t, "https://cdn.test/a.jpg", resp.AvatarURL)

	assert.Empty(t, MapProfileToResponse(&domain.Profile{}).Birthday)
}
