package deck

import (
	"errors"
	"fmt"
	"strings"

	"deckerr/internal/rules"
)

var (
	ErrBadInput        = errors.New("invalid deck input")
	ErrNotFound        = errors.New("deck not found")
	ErrForbidden       = errors.New("deck belongs to another user")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 100")
	ErrUnknownCard     = errors.New("unknown card")
	ErrNotCommander    = errors.New("commander must be a legendary creature in the deck")
)

// InvalidDeckError is returned by strict saves when the deck is not legal.
type InvalidDeckError struct {
	Result rules.ValidationResult
}

func (e *InvalidDeckError) Error() string {
	return fmt.Sprintf("deck is not legal: %s", strings.Join(e.Result.Errors, "; "))
}
