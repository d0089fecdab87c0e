package registrationerrors

import (
	"net/http"

	"callsync/internal/shared/apperror"
)

var (
	ErrDocumentsNotUploaded = apperror.New(
		apperror.CodeInvalidState,
		"Identity proof and photo must be uploaded first",
		http.StatusBadRequest,
	)
	ErrAlreadyCompleted = apperror.New(
		apperror.CodeConflict,
		"Registration is already completed",
		http.StatusBadRequest,
	)
	ErrRegistrationNotCompleted = apperror.New(
		apperror.CodeForbidden,
		"Registration has not been approved yet",
		http.StatusForbidden,
	)
	ErrAlreadyRegistered = apperror.New(
		apperror.CodeConflict,
		"Employee is already registered",
		http.StatusBadRequest,
	)
	ErrPhoneMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"Phone number does not match the employee record",
		http.StatusBadRequest,
	)
	ErrCredentialRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Email and password are required to activate an employee without a registration",
		http.StatusBadRequest,
	)
	ErrConcurrentChange = apperror.New(
		apperror.CodeConflict,
		"Employee was modified by another request, retry",
		http.StatusConflict,
	)
	ErrMalformedCode = apperror.New(
		apperror.CodeInvalidInput,
		"Code is malformed",
		http.StatusBadRequest,
	)
	ErrInvalidCode = apperror.New(
		apperror.CodeNotFound,
		"Invalid code",
		http.StatusNotFound,
	)
	ErrCodeExpired = apperror.New(
		apperror.CodeCodeExpired,
		"Code has expired",
		http.StatusBadRequest,
	)
	ErrDocumentsMissing = apperror.New(
		apperror.CodeInvalidInput,
		"Both idProof and photo files are required",
		http.StatusBadRequest,
	)
	ErrDocumentTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"Document exceeds the allowed size",
		http.StatusBadRequest,
	)
	ErrStorageUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Document storage is unavailable",
		http.StatusServiceUnavailable,
	)
)
