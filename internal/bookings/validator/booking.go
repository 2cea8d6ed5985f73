package validator

import (
	"commonspace/pkg/logger"
	"commonspace/pkg/model"
	"commonspace/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validation.New(log)

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	return validation.Struct(v.validate, update)
}

// ValidateFilter checks the optional query filters of a booking listing.
func (v *BookingValidator) ValidateFilter(filter *model.BookingFilter) error {
	var errs validation.ValidationErrors

	for _, status := range filter.Statuses {
		if !status.IsValid() {
			errs = append(errs, validation.ValidationError{Field: "status", Message: "status must be a known booking status"})
			break
		}
	}
	for field, date := range map[string]string{"date": filter.Date, "dateFrom": filter.DateFrom, "dateTo": filter.DateTo} {
		if date != "" && !validation.IsDate(date) {
			errs = append(errs, validation.ValidationError{Field: field, Message: field + " must be a date in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
