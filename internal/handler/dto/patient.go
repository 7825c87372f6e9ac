package dto

import "github.com/housetable/vetclinic/internal/model"

// CreatePatientRequest represents the request body for creating a patient.
type CreatePatientRequest struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	OwnerName        string `json:"ownerName"`
	OwnerAddress     string `json:"ownerAddress"`
	OwnerPhoneNumber string `json:"ownerPhoneNumber"`
}

// UpdatePatientRequest represents the request body for updating a patient.
// Omitted fields are left unchanged.
type UpdatePatientRequest struct {
	Name             *string `json:"name,omitempty"`
	Type             *string `json:"type,omitempty"`
	OwnerName        *string `json:"ownerName,omitempty"`
	OwnerAddress     *string `json:"ownerAddress,omitempty"`
	OwnerPhoneNumber *string `json:"ownerPhoneNumber,omitempty"`
}

// ToPatch converts the request into a model patch.
func (r UpdatePatientRequest) ToPatch() model.PatientPatch {
	patch := model.PatientPatch{
		Name:             r.Name,
		OwnerName:        r.OwnerName,
		OwnerAddress:     r.OwnerAddress,
		OwnerPhoneNumber: r.OwnerPhoneNumber,
	}
	if r.Type != nil {
		t := model.PetType(*r.Type)
		patch.Type = &t
	}
	return patch
}
