package employee

import (
	"errors"

	"callsync/internal/codegen"
	employeeerrors "callsync/internal/employee/errors"
	"callsync/internal/shared/apperror"
	"callsync/internal/shared/dbutil"

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

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return employeeerrors.ErrEmployeeNotFound
	case errors.Is(err, codegen.ErrExhausted):
		return employeeerrors.ErrCodeSpaceExhausted.WithCause(err)
	case dbutil.IsUniqueViolation(err, ConstraintPhone):
		return employeeerrors.ErrDuplicatePhone
	case dbutil.IsUniqueViolation(err, ConstraintEmail):
		return employeeerrors.ErrDuplicateEmail
	}

	return err
}

// MapRepositoryError is shared with the packages that drive lifecycle
// transitions over this repository.
func MapRepositoryError(err error) error {
	return mapRepositoryError(err)
}
