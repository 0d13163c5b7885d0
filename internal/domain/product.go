package domain

import (
	"time"
)

// Product availability statuses. "yes" means the product is purchasable now.
const (
	StatusAvailable   = "yes"
	StatusUnavailable = "no"
)

// Product gender labels.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderUnisex = "unisex"
)

// Upload constraints for product images.
const (
	MaxImageSize       = 5 << 20 // 5 MB per file
	MaxImagesPerUpload = 10
)

// AllowedImageTypes is the MIME allow-list for uploaded product images.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Product represents a catalog product. Image holds ordered storage keys;
// the first entry is the primary display image.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	Gender      string    `json:"gender"`
	Color       []string  `json:"color"`
	Image       []string  `json:"image"`
	MercariURI  string    `json:"mercari_uri,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DeriveStatus computes the final availability status for a write. Stock of
// one or below always forces "no". Above that the caller-supplied value wins,
// then the previously stored value, then "yes". Both create and update must
// go through this single routine.
func DeriveStatus(stock int, requested, previous string) string {
	if stock <= 1 {
		return StatusUnavailable
	}
	if requested != "" {
		return requested
	}
	if previous != "" {
		return previous
	}
	return StatusAvailable
}

// ValidStatuses returns the set of valid availability statuses.
func ValidStatuses() []string {
	return []string{StatusAvailable, StatusUnavailable}
}

// IsValidStatus checks whether the given string is a valid availability status.
func IsValidStatus(status string) bool {
	return status == StatusAvailable || status == StatusUnavailable
}

// ValidGenders returns the set of valid gender labels.
func ValidGenders() []string {
	return []string{GenderMale, GenderFemale, GenderUnisex}
}

// IsValidGender checks whether the given string is a valid gender label.
func IsValidGender(gender string) bool {
	return gender == GenderMale || gender == GenderFemale || gender == GenderUnisex
}
