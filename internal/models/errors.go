package models

import "github.com/pkg/errors"

var (
	// ErrValidation covers user input the service refuses without touching state.
	ErrValidation = errors.New("validation error")

	ErrEmptyTrackingNumber     = errors.Wrap(ErrValidation, "tracking number is required")
	ErrDuplicateTrackingNumber = errors.Wrap(ErrValidation, "tracking number is already being tracked")
	ErrMissingPackageID        = errors.Wrap(ErrValidation, "package_id is required")

	// ErrInvalidFormat is returned for stored or imported data that does not parse.
	ErrInvalidFormat = errors.New("invalid format")
)
