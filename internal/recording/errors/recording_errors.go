package recordingerrors

import (
	"net/http"

	"callsync/internal/shared/apperror"
)

var (
	ErrRecordingNotFound = apperror.New(
		apperror.CodeNotFound,
		"Recording not found",
		http.StatusNotFound,
	)
	ErrPayloadMissing = apperror.New(
		apperror.CodeNotFound,
		"Recording file not found in storage",
		http.StatusNotFound,
	)
	ErrInvalidRecordingID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid recording ID",
		http.StatusBadRequest,
	)
	ErrAudioRequired = apperror.New(
		apperror.CodeInvalidInput,
		"No file uploaded",
		http.StatusBadRequest,
	)
	ErrAudioTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"Recording exceeds the allowed size",
		http.StatusRequestEntityTooLarge,
	)
	ErrEmployeeIDRequired = apperror.New(
		apperror.CodeInvalidInput,
		"employee_id is required",
		http.StatusBadRequest,
	)
	ErrStorageUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Recording storage is unavailable",
		http.StatusServiceUnavailable,
	)
	ErrPurgeInconsistent = apperror.New(
		apperror.CodeInternalError,
		"Recording could not be purged",
		http.StatusInternalServerError,
	)
)
