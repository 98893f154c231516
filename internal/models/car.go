package models

import "time"

// Car is a marketplace listing. Mutations are admin-gated at the API layer.
type Car struct {
	ID                 string     `json:"id"`
	Make               string     `json:"make"`
	Model              string     `json:"model"`
	Price              int64      `json:"price"`
	FirstRegistration  time.Time  `json:"firstRegistration"`
	Kilometers         int64      `json:"kilometers"`
	FuelType           string     `json:"fuelType"`
	EnginePower        int        `json:"enginePower"`
	EngineDisplacement *int       `json:"engineDisplacement,omitempty"`
	Doors              int        `json:"doors"`
	Seats              int        `json:"seats"`
	Transmission       string     `json:"transmission"`
	Color              string     `json:"color"`
	Description        *string    `json:"description,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

// ParklistEntry is a car saved to an account's parklist. Ordering is by
// Position, assigned append-only.
type ParklistEntry struct {
	UserID   string
	CarID    string
	Position int
	AddedAt  time.Time
}
