package domain

import (
	"fmt"
	"strings"
	"time"
)

const BirthdayLayout = "2006-01-02"

// Identity is the verified caller as reported by the identity backend.
type Identity struct {
	UserID string
	Email  string
}

type Profile struct {
	UserID              string     `json:"user_id"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	PhoneCountryCode    string     `json:"phone_country_code"`
	PhoneNumber         string     `json:"phone_number"`
	WhatsappCountryCode string     `json:"whatsapp_country_code"`
	WhatsappNumber      string     `json:"whatsapp_number"`
	Birthday            *time.Time `json:"birthday,omitempty"`
	Company             string     `json:"company"`
	Country             string     `json:"country"`
	AvatarURL           string     `json:"avatar_url"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func NewProfile(id Identity) *Profile {
	now := time.Now()
	return &Profile{
		UserID:    id.UserID,
		Email:     id.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProfileUpdate carries the editable account fields. Nil fields are left
// untouched; an empty Birthday clears it.
type ProfileUpdate struct {
	FirstName           *string
	LastName            *string
	PhoneCountryCode    *string
	PhoneNumber         *string
	WhatsappCountryCode *string
	WhatsappNumber      *string
	Birthday            *string
	Company             *string
	Country             *string
}

func (p *Profile) Apply(u ProfileUpdate) error {
	if u.Birthday != nil {
		b := strings.TrimSpace(*u.Birthday)
		if b == "" {
			p.Birthday = nil
		} else {
			t, err := time.Parse(BirthdayLayout, b)
			if err != nil {
				return fmt.Errorf("%w: birthday must be YYYY-MM-DD", ErrInvalidProfile)
			}
			if t.After(time.Now()) {
				return fmt.Errorf("%w: birthday is in the future", ErrInvalidProfile)
			}
			p.Birthday = &t
		}
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.FirstName, u.FirstName)
	set(&p.LastName, u.LastName)
	set(&p.PhoneCountryCode, u.PhoneCountryCode)
	set(&p.PhoneNumber, u.PhoneNumber)
	set(&p.WhatsappCountryCode, u.WhatsappCountryCode)
	set(&p.WhatsappNumber, u.WhatsappNumber)
	set(&p.Company, u.Company)
	set(&p.Country, u.Country)

	p.UpdatedAt = time.Now()
	return nil
}
