package models

import "time"

// ShopOwner is the minimal owner info embedded in shop responses.
type ShopOwner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Shop represents a listed restaurant.
type Shop struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	City           string     `json:"city,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	OpeningHours   string     `json:"openingHours,omitempty"`
	Description    string     `json:"description,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	AverageRating  float64    `json:"averageRating"`
	WeightedRating float64    `json:"weightedRating"`
	ReviewCount    int        `json:"reviewCount"`
	Owner          *ShopOwner `json:"owner,omitempty"`
	Media          []MediaRef `json:"media,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Bounds is a map viewport. A bounds query returns everything inside,
// capped server-side, with no pagination.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains reports whether the point lies inside the bounds.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ShopRequest creates or updates a shop.
type ShopRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	Address      string  `json:"address" validate:"required"`
	City         string  `json:"city,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	OpeningHours string  `json:"openingHours,omitempty"`
	Description  string  `json:"description,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}
