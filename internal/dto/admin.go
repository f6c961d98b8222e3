package dto

// LocationRequest creates or renames a location.
type LocationRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// AddHouseRequest creates a vacant house under a location.
type AddHouseRequest struct {
	LocationID string  `json:"locationId" validate:"required"`
	Name       string  `json:"name" validate:"required,max=120"`
	RentAmount float64 `json:"rentAmount"`
}

// UpdateHouseRequest edits descriptive house fields. Status and tenant link are
// owned by the lease/vacate workflow and cannot be set here.
type UpdateHouseRequest struct {
	LocationID string  `json:"locationId" validate:"required"`
	Name       string  `json:"name" validate:"required,max=120"`
	RentAmount float64 `json:"rentAmount"`
}
