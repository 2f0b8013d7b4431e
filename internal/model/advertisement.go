package model

import "time"

// Advertisement is a listing shown on the index page
type Advertisement struct {
	ID          int       `json:"id" db:"id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	Location    string    `json:"location" db:"location"`
	RenewalDate time.Time `json:"renewal_date" db:"renewal_date"`
	Amount      float64   `json:"amount" db:"amount"`
	Image       *string   `json:"image,omitempty" db:"image"`         // Stored file name under the uploads dir
	Latitude    *float64  `json:"latitude,omitempty" db:"latitude"`   // Nil when geocoding failed
	Longitude   *float64  `json:"longitude,omitempty" db:"longitude"` // Nil when geocoding failed
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// HasCoordinates reports whether the location was geocoded
func (a *Advertisement) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// CreateAdvertisementInput holds validated, typed values from the add form
type CreateAdvertisementInput struct {
	CompanyName string
	Location    string
	RenewalDate time.Time
	Amount      float64
}
