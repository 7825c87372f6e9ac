// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// Response is the envelope of every successful API response.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorResponse is the envelope of every failed API response.
type ErrorResponse struct {
	Status  bool   `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Error names.
const (
	ErrorBadRequest       = "BAD_REQUEST"
	ErrorNotFound         = "NOT_FOUND"
	ErrorMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorInternal         = "INTERNAL_SERVER"
)

// AmountResponse carries a single report amount.
type AmountResponse struct {
	Amount float64 `json:"amount"`
}

// BalanceResponse carries paid minus unpaid for a period.
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// PopularPetResponse names the pet type with the most appointments.
type PopularPetResponse struct {
	Type string `json:"type"`
}

// PetTotalResponse carries the normalized total of a pet type.
type PetTotalResponse struct {
	Type  string  `json:"type"`
	Total float64 `json:"total"`
}
