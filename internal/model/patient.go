// Package model defines domain entities for the application.
package model

import "time"

// PetType is the species of a patient.
type PetType string

const (
	PetTypeCat  PetType = "cat"
	PetTypeDog  PetType = "dog"
	PetTypeBird PetType = "bird"
)

// PetTypes lists every supported pet type.
var PetTypes = []PetType{PetTypeCat, PetTypeDog, PetTypeBird}

// IsValid checks if the pet type is one of the supported values.
func (p PetType) IsValid() bool {
	switch p {
	case PetTypeCat, PetTypeDog, PetTypeBird:
		return true
	}
	return false
}

// Patient is a pet registered at the clinic together with its owner's contact details.
type Patient struct {
	ID               string    `json:"id" bson:"_id"`
	Name             string    `json:"name" bson:"name"`
	Type             PetType   `json:"type" bson:"type"`
	OwnerName        string    `json:"ownerName" bson:"ownerName"`
	OwnerAddress     string    `json:"ownerAddress" bson:"ownerAddress"`
	OwnerPhoneNumber string    `json:"ownerPhoneNumber" bson:"ownerPhoneNumber"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PatientPatch holds a partial update. Nil fields are left untouched.
type PatientPatch struct {
	Name             *string
	Type             *PetType
	OwnerName        *string
	OwnerAddress     *string
	OwnerPhoneNumber *string
}

// Apply merges the patch into the patient.
func (p PatientPatch) Apply(patient *Patient) {
	if p.Name != nil {
		patient.Name = *p.Name
	}
	if p.Type != nil {
		patient.Type = *p.Type
	}
	if p.OwnerName != nil {
		patient.OwnerName = *p.OwnerName
	}
	if p.OwnerAddress != nil {
		patient.OwnerAddress = *p.OwnerAddress
	}
	if p.OwnerPhoneNumber != nil {
		patient.OwnerPhoneNumber = *p.OwnerPhoneNumber
	}
}
