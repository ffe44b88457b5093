package util

import (
	"errors"
	"fmt"
)

// Err annotates err with the cause that triggered it. Both stay in the chain,
// so callers can match either one with errors.Is.
func Err(err error, causedBy error) error {
	if err == nil && causedBy == nil {
		return errors.New("unknown error")
	} else if err != nil && causedBy == nil {
		return err
	} else if err == nil && causedBy != nil {
		return causedBy
	} else {
		return fmt.Errorf("%w: %w", err, causedBy)
	}
}
