package models

import (
	"strings"

	dErrors "civicfix/pkg/domain-errors"
)

// CreateComplaintRequest carries the citizen's report. Evidence bytes
// travel separately; by the time the service sees this request the upload
// payload has already been read out of the multipart form.
type CreateComplaintRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`

	EvidenceData     []byte `json:"-"`
	EvidenceFilename string `json:"-"`
	EvidenceMIME     string `json:"-"`
}

func (r *CreateComplaintRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	r.Address = strings.TrimSpace(r.Address)
}

func (r *CreateComplaintRequest) Validate() error {
	if r.Title == "" || r.Description == "" || r.Category == "" || r.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "title, description, category, and address are required")
	}
	if err := validateCoordinates(r.Latitude, r.Longitude); err != nil {
		return err
	}
	if len(r.EvidenceData) == 0 {
		return dErrors.New(dErrors.CodeValidation, "a photo of the issue is required")
	}
	return nil
}

// UpdateStatusRequest is the admin transition payload.
type UpdateStatusRequest struct {
	Status            Status `json:"status"`
	ResolutionDetails string `json:"resolution_details"`
}

func (r *UpdateStatusRequest) Normalize() {
	r.ResolutionDetails = strings.TrimSpace(r.ResolutionDetails)
}

func (r *UpdateStatusRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

// VerifyRequest is the owner's post-resolution review payload.
type VerifyRequest struct {
	Confirmed bool    `json:"confirmed"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	EvidenceData     []byte `json:"-"`
	EvidenceFilename string `json:"-"`
	EvidenceMIME     string `json:"-"`
}

func (r *VerifyRequest) Normalize() {}

func (r *VerifyRequest) Validate() error {
	if err := validateCoordinates(r.Latitude, r.Longitude); err != nil {
		return err
	}
	if len(r.EvidenceData) == 0 {
		return dErrors.New(dErrors.CodeValidation, "verification photo evidence is required")
	}
	return nil
}

// ForwardRequest names the department address a complaint is sent to.
type ForwardRequest struct {
	TargetAddress string `json:"target_address"`
}

func (r *ForwardRequest) Normalize() {
	r.TargetAddress = strings.ToLower(strings.TrimSpace(r.TargetAddress))
}

func (r *ForwardRequest) Validate() error {
	if r.TargetAddress == "" || !strings.Contains(r.TargetAddress, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid department email address is required")
	}
	return nil
}

func validateCoordinates(lat, lon float64) error {
	if lat == 0 && lon == 0 {
		return dErrors.New(dErrors.CodeValidation, "location coordinates are required")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return dErrors.New(dErrors.CodeValidation, "location coordinates are out of range")
	}
	return nil
}
