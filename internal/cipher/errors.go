package cipher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKeyLength reports a key that cannot drive the requested
	// transform: an empty Vigenère key or IV, or a pad shorter than its input.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrUnknownScheme is returned by ParseScheme for unrecognised names.
	ErrUnknownScheme = errors.New("unknown cipher scheme")

	// ErrOperationNotFound is returned when a pipeline names an operation
	// that is not registered.
	ErrOperationNotFound = errors.New("operation not found")
)

func requireKey(what string, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidKeyLength, what)
	}
	return nil
}
