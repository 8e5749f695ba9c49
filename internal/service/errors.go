package service

import (
	"errors"

	"lab-maintenance-backend/internal/apperr"
)

// storeError keeps typed errors and wraps anything else as internal
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	return apperr.Internal(err, "%s", message)
}
