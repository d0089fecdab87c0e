package recording

import (
	"errors"

	recordingerrors "callsync/internal/recording/errors"
	"callsync/internal/shared/apperror"

	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return recordingerrors.ErrRecordingNotFound
	}

	return err
}
