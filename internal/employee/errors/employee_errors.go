package employeeerrors

import (
	"net/http"

	"callsync/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrDuplicatePhone = apperror.New(
		apperror.CodeDuplicateIdentity,
		"An employee with this phone number already exists",
		http.StatusConflict,
	)
	ErrDuplicateEmail = apperror.New(
		apperror.CodeDuplicateIdentity,
		"An employee with this email already exists",
		http.StatusConflict,
	)
	ErrCodeSpaceExhausted = apperror.New(
		apperror.CodeInternalError,
		"Could not assign a unique employee code",
		http.StatusInternalServerError,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrInvalidPhone = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid phone number",
		http.StatusBadRequest,
	)
	ErrNameRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Name or first name is required",
		http.StatusBadRequest,
	)
	ErrInvalidJoiningDate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid joiningDate, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
)
