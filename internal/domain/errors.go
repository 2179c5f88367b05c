package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer
// Handlers translate these with errors.Is:
//   - ErrNotFound         -> 404
//   - ErrInvalidInput     -> 400
//   - ErrStoreUnavailable -> 500
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrProfileNotFound    = fmt.Errorf("profile %w", ErrNotFound)
	ErrLinkNotFound       = fmt.Errorf("link %w", ErrNotFound)
	ErrLinkNotInProfile   = fmt.Errorf("%w: link does not belong to profile", ErrInvalidInput)
	ErrInvalidGranularity = fmt.Errorf("%w: granularity must be 'hourly' or 'daily'", ErrInvalidInput)
	ErrInvalidPeriodDays  = fmt.Errorf("%w: number of days must be positive", ErrInvalidInput)
)
