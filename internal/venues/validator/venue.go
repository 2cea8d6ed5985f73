package validator

import (
	"errors"
	"fmt"

	"commonspace/pkg/logger"
	"commonspace/pkg/model"
	"commonspace/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type VenueValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVenueValidator(log *logger.Logger) *VenueValidator {
	v := validation.New(log)

	log.Info("Venue validator initialized successfully")

	return &VenueValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks struct tags and then the rules tags cannot express:
// each open day closes after it opens and package ids are unique.
func (v *VenueValidator) Validate(venue *model.Venue) error {
	var errs validation.ValidationErrors

	if err := validation.Struct(v.validate, venue); err != nil {
		if !errors.As(err, &errs) {
			return err
		}
	}

	errs = append(errs, checkOpeningHours(venue.OpeningHours)...)
	errs = append(errs, checkPackages(venue.Packages)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *VenueValidator) ValidateUpdate(update *model.VenueUpdate) error {
	var errs validation.ValidationErrors

	if err := validation.Struct(v.validate, update); err != nil {
		if !errors.As(err, &errs) {
			return err
		}
	}
	if update.OpeningHours != nil {
		errs = append(errs, checkOpeningHours(*update.OpeningHours)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *VenueValidator) ValidateStatusUpdate(update *model.VenueStatusUpdate) error {
	return validation.Struct(v.validate, update)
}

func checkOpeningHours(hours model.OpeningHours) validation.ValidationErrors {
	var errs validation.ValidationErrors
	for _, day := range model.Weekdays {
		h, ok := hours[day]
		if !ok || h.IsClosed() {
			continue
		}
		if h.Open == model.Closed || h.Close == model.Closed {
			continue
		}
		// HH:MM compares lexically.
		if h.Open >= h.Close {
			errs = append(errs, validation.ValidationError{
				Field:   "openingHours." + day,
				Message: fmt.Sprintf("closing time %s must be after opening time %s", h.Close, h.Open),
			})
		}
	}
	return errs
}

func checkPackages(packages []model.Package) validation.ValidationErrors {
	var errs validation.ValidationErrors
	seen := make(map[string]bool, len(packages))
	for i, p := range packages {
		if p.ID == "" {
			continue
		}
		if seen[p.ID] {
			errs = append(errs, validation.ValidationError{
				Field:   fmt.Sprintf("packages[%d].id", i),
				Message: "package id must be unique within the venue",
			})
		}
		seen[p.ID] = true
	}
	return errs
}
