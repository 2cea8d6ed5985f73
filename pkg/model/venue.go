package model

import (
	"strings"
	"time"
)

type VenueStatus string

const (
	VenueActive   VenueStatus = "active"
	VenueInactive VenueStatus = "inactive"
)

type VenueType string

const (
	VenueCafe   VenueType = "cafe"
	VenueCowork VenueType = "cowork"
)

// Closed marks a weekday without opening hours.
const Closed = "Closed"

const DefaultVenueCapacity = 1

var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

type DayHours struct {
	Open  string `json:"open" bson:"open" validate:"required,hhmm_or_closed"`
	Close string `json:"close" bson:"close" validate:"required,hhmm_or_closed"`
}

func (d DayHours) IsClosed() bool {
	return d.Open == Closed || d.Close == Closed || d.Open == "" || d.Close == ""
}

// OpeningHours is keyed by lowercase English weekday name.
type OpeningHours map[string]DayHours

// For returns the hours for t's weekday. ok is false when the venue is closed.
func (o OpeningHours) For(weekday time.Weekday) (DayHours, bool) {
	hours, found := o[strings.ToLower(weekday.String())]
	if !found || hours.IsClosed() {
		return DayHours{}, false
	}
	return hours, true
}

func DefaultOpeningHours() OpeningHours {
	weekday := DayHours{Open: "09:00", Close: "17:00"}
	closed := DayHours{Open: Closed, Close: Closed}
	return OpeningHours{
		"monday":    weekday,
		"tuesday":   weekday,
		"wednesday": weekday,
		"thursday":  weekday,
		"friday":    weekday,
		"saturday":  closed,
		"sunday":    closed,
	}
}

type Package struct {
	ID          string  `json:"id" bson:"id" validate:"omitempty,min=1,max=64"`
	Name        string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Price       float64 `json:"price" bson:"price" validate:"gte=0"`
	Duration    int     `json:"duration" bson:"duration" validate:"required,min=1,max=24"`
	Description string  `json:"description" bson:"description" validate:"omitempty,max=500"`
}

type Venue struct {
	ID           string       `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description  string       `json:"description" bson:"description" validate:"omitempty,max=2000"`
	Location     string       `json:"location" bson:"location" validate:"required,min=2,max=200"`
	Address      string       `json:"address" bson:"address" validate:"omitempty,max=300"`
	Type         VenueType    `json:"type" bson:"type" validate:"omitempty,oneof=cafe cowork"`
	PriceRange   string       `json:"priceRange" bson:"priceRange" validate:"omitempty,max=10"`
	Photos       []string     `json:"photos" bson:"photos" validate:"omitempty,max=20,dive,url"`
	Rating       float64      `json:"rating" bson:"rating" validate:"gte=0,lte=5"`
	Capacity     int          `json:"capacity" bson:"capacity" validate:"gte=0,lte=10000"`
	OpeningHours OpeningHours `json:"openingHours" bson:"openingHours" validate:"omitempty,opening_hours,dive"`
	Packages     []Package    `json:"packages" bson:"packages" validate:"omitempty,max=50,dive"`
	Status       VenueStatus  `json:"status" bson:"status" validate:"omitempty,oneof=active inactive"`
	CreatorID    string       `json:"creatorId" bson:"creatorId"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updatedAt"`
}

func (v *Venue) Package(id string) (Package, bool) {
	for _, p := range v.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// FillMissing sets the opening hours, status and list fields a venue may lack.
// Capacity is left alone since zero is a valid stored value.
func (v *Venue) FillMissing() {
	if len(v.OpeningHours) == 0 {
		v.OpeningHours = DefaultOpeningHours()
	}
	if v.Status == "" {
		v.Status = VenueActive
	}
	if v.Photos == nil {
		v.Photos = []string{}
	}
	if v.Packages == nil {
		v.Packages = []Package{}
	}
}

func (v *Venue) IsActive() bool {
	return v.Status == VenueActive
}

type VenueUpdate struct {
	Name         *string       `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description  *string       `json:"description,omitempty" validate:"omitempty,max=2000"`
	Location     *string       `json:"location,omitempty" validate:"omitempty,min=2,max=200"`
	Address      *string       `json:"address,omitempty" validate:"omitempty,max=300"`
	Type         *VenueType    `json:"type,omitempty" validate:"omitempty,oneof=cafe cowork"`
	PriceRange   *string       `json:"priceRange,omitempty" validate:"omitempty,max=10"`
	Photos       *[]string     `json:"photos,omitempty" validate:"omitempty,max=20,dive,url"`
	Capacity     *int          `json:"capacity,omitempty" validate:"omitempty,gte=0,lte=10000"`
	OpeningHours *OpeningHours `json:"openingHours,omitempty" validate:"omitempty,opening_hours,dive"`
	Packages     *[]Package    `json:"packages,omitempty" validate:"omitempty,max=50,dive"`
}

type VenueStatusUpdate struct {
	Status VenueStatus `json:"status" validate:"required,oneof=active inactive"`
}

type VenueFilter struct {
	Search    string
	Status    VenueStatus
	Type      VenueType
	CreatorID string
}
