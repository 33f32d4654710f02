package dto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yokitheyo/avatarservice/internal/avatar"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

type UpdateProfileRequest struct {
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	PhoneCountryCode    *string `json:"phone_country_code"`
	PhoneNumber         *string `json:"phone_number"`
	WhatsappCountryCode *string `json:"whatsapp_country_code"`
	WhatsappNumber      *string `json:"whatsapp_number"`
	Birthday            *string `json:"birthday"`
	Company             *string `json:"company"`
	Country             *string `json:"country"`
}

func (r *UpdateProfileRequest) ToProfileUpdate() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		PhoneCountryCode:    r.PhoneCountryCode,
		PhoneNumber:         r.PhoneNumber,
		WhatsappCountryCode: r.WhatsappCountryCode,
		WhatsappNumber:      r.WhatsappNumber,
		Birthday:            r.Birthday,
		Company:             r.Company,
		Country:             r.Country,
	}
}

// AvatarJobTask is the Kafka message that hands a job to the worker.
type AvatarJobTask struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
}

// ParseJobParams reads the crop and transform fields of a job upload form.
// Missing optional fields take their identity values.
func ParseJobParams(field func(string) string) (domain.JobParams, error) {
	var p domain.JobParams
	var err error

	num := func(name string, def float64, required bool) float64 {
		if err != nil {
			return 0
		}
		raw := strings.TrimSpace(field(name))
		if raw == "" {
			if required {
				err = fmt.Errorf("%w: %s is required", domain.ErrInvalidJob, name)
			}
			return def
		}
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			err = fmt.Errorf("%w: %s must be a number", domain.ErrInvalidJob, name)
			return 0
		}
		return v
	}

	p.Crop = avatar.CropRegion{
		Unit:   avatar.Unit(strings.TrimSpace(field("unit"))),
		X:      num("x", 0, true),
		Y:      num("y", 0, true),
		Width:  num("width", 0, true),
		Height: num("height", 0, true),
	}
	if p.Crop.Unit == "" {
		p.Crop.Unit = avatar.UnitPixel
	}
	p.DisplayWidth = num("display_width", 0, false)
	p.DisplayHeight = num("display_height", 0, false)
	p.Transform = avatar.Transform{
		Scale:    num("scale", 1, false),
		Rotation: num("rotation", 0, false),
	}
	p.DPR = num("dpr", 1, false)

	if err != nil {
		return domain.JobParams{}, err
	}
	return p, nil
}
