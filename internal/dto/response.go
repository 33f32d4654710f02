package dto

import (
	"time"

	"github.com/yokitheyo/avatarservice/internal/avatar"
	"github.com/yokitheyo/avatarservice/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type ProfileResponse struct {
	UserID              string    `json:"user_id"`
	Email               string    `json:"email"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	PhoneCountryCode    string    `json:"phone_country_code"`
	PhoneNumber         string    `json:"phone_number"`
	WhatsappCountryCode string    `json:"whatsapp_country_code"`
	WhatsappNumber      string    `json:"whatsapp_number"`
	Birthday            string    `json:"birthday"`
	Company             string    `json:"company"`
	Country             string    `json:"country"`
	AvatarURL           string    `json:"avatar_url"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type AvatarUploadResponse struct {
	AvatarURL string `json:"avatar_url"`
}

type AvatarJobResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Crop         avatar.CropRegion `json:"crop"`
	Transform    avatar.Transform  `json:"transform"`
	DPR          float64           `json:"dpr"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	Width        int               `json:"width,omitempty"`
	Height       int               `json:"height,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

func MapProfileToResponse(p *domain.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}

	resp := &ProfileResponse{
		UserID:              p.UserID,
		Email:               p.Email,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		PhoneCountryCode:    p.PhoneCountryCode,
		PhoneNumber:         p.PhoneNumber,
		WhatsappCountryCode: p.WhatsappCountryCode,
		WhatsappNumber:      p.WhatsappNumber,
		Company:             p.Company,
		Country:             p.Country,
		AvatarURL:           p.AvatarURL,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.Birthday != nil {
		resp.Birthday = p.Birthday.Format(domain.BirthdayLayout)
	}
	return resp
}

func MapJobToResponse(j *domain.AvatarJob) *AvatarJobResponse {
	if j == nil {
		return nil
	}

	resp := &AvatarJobResponse{
		ID:           j.ID,
		Status:       string(j.Status),
		Crop:         j.Crop,
		Transform:    j.Transform,
		DPR:          j.DPR,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		CompletedAt:  j.CompletedAt,
	}

	if j.IsCompleted() {
		resp.AvatarURL = j.AvatarURL
		resp.Width = j.Width
		resp.Height = j.Height
	}

	return resp
}
