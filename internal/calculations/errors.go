package calculations

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a caller mistake, such as non-consecutive weeks handed
// to a fortnight comparison. Handlers map it to a client error.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsInvalidInput reports whether err was caused by invalid caller input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// ErrorKind labels err for metrics: "invalid_input" or "internal".
func ErrorKind(err error) string {
	if IsInvalidInput(err) {
		return "invalid_input"
	}
	return "internal"
}
