package validator

import "errors"

var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrInvalidURL     = errors.New("invalid URL format")
	ErrInvalidScheme  = errors.New("URL must use http or https scheme")
	ErrInvalidHost    = errors.New("URL must have a valid host")
	ErrInvalidIP      = errors.New("invalid IP address format")
	ErrInvalidDate    = errors.New("invalid date format, expected YYYY-MM-DD or ISO 8601")
	ErrNotPositiveInt = errors.New("value must be a positive integer")
)
