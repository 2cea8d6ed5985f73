package model

import (
	"time"
)

// Booking field names are shared with the existing bookings collection and must not change.
type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty"`
	VenueID         string        `json:"venueId" bson:"venueId"`
	UserID          string        `json:"userId" bson:"userId"`
	UserName        string        `json:"userName" bson:"userName"`
	UserEmail       string        `json:"userEmail" bson:"userEmail"`
	VenueName       string        `json:"venueName" bson:"venueName"`
	PackageID       string        `json:"packageId" bson:"packageId"`
	PackageName     string        `json:"packageName" bson:"packageName"`
	PackagePrice    float64       `json:"packagePrice" bson:"packagePrice"`
	Date            string        `json:"date" bson:"date"`
	Time            string        `json:"time" bson:"time"`
	Duration        int           `json:"duration" bson:"duration"`
	Status          BookingStatus `json:"status" bson:"status"`
	StatusUpdatedAt *time.Time    `json:"statusUpdatedAt,omitempty" bson:"statusUpdatedAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// BookingRequest is what a user submits. Everything else is derived from
// the venue, the package and the caller's identity.
type BookingRequest struct {
	VenueID   string `json:"venueId" validate:"required,mongodb"`
	PackageID string `json:"packageId" validate:"required,min=1,max=64"`
	Date      string `json:"date" validate:"required,isodate"`
	Time      string `json:"time" validate:"required,hhmm"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,booking_status"`
}

type BookingFilter struct {
	VenueID  string
	UserID   string
	Statuses []BookingStatus
	Date     string
	DateFrom string
	DateTo   string
}
