package bags

import "time"

// CreateBagRequest represents the create bag payload
type CreateBagRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=120"`
	Description string     `json:"description" validate:"max=500"`
	TripDate    *time.Time `json:"trip_date,omitempty"`
}

// UpdateBagRequest represents the update bag payload
type UpdateBagRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	TripDate    *time.Time `json:"trip_date,omitempty"`
}

// AddItemRequest represents the add item payload
type AddItemRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1,max=999"`
}

// UpdateItemRequest represents the update item payload
type UpdateItemRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Quantity *int    `json:"quantity,omitempty" validate:"omitempty,min=1,max=999"`
	Packed   *bool   `json:"packed,omitempty"`
}
