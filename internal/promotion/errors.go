package promotion

import "errors"

var (
	ErrMissingID          = errors.New("promotion id is required")
	ErrMissingName        = errors.New("promotion name is required")
	ErrDiscountOutOfRange = errors.New("discount percent must be within [0, 100]")
	ErrInvalidWindow      = errors.New("valid_to is before valid_from")
)
