package recording

import (
	"io"
	"time"
)

const defaultContentType = "audio/mpeg"

// UploadRequest holds the multipart fields that travel next to the "audio"
// file. Timestamp is milliseconds since the epoch.
type UploadRequest struct {
	EmployeeID   string `form:"employee_id" binding:"omitempty,uuid"`
	PhoneNumber  string `form:"phone_number" binding:"omitempty,max=32"`
	CallDuration int    `form:"call_duration" binding:"omitempty,min=0"`
	Timestamp    int64  `form:"timestamp" binding:"omitempty,min=0"`
}

type Payload struct {
	Body        io.Reader
	Name        string
	ContentType string
}

type ListQuery struct {
	EmployeeID string
	Page       int
	PageSize   int
}

// Stream is an open payload; the caller closes Body.
type Stream struct {
	Body        io.ReadCloser
	Size        int64
	Name        string
	ContentType string
}

type RecordingResponse struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	EmployeeCode  string     `json:"employeeCode,omitempty"`
	FileID        string     `json:"fileId"`
	FileURL       string     `json:"fileUrl"`
	FileName      string     `json:"fileName"`
	FileSize      int64      `json:"fileSize"`
	ContentType   string     `json:"contentType"`
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	CallDuration  int        `json:"callDuration"`
	CallTimestamp *time.Time `json:"callTimestamp,omitempty"`
	UploadedAt    time.Time  `json:"uploadedAt"`
}

func ToResponse(r Recording) RecordingResponse {
	return RecordingResponse{
		ID:            r.ID.String(),
		EmployeeID:    r.EmployeeID.String(),
		EmployeeCode:  r.EmployeeCode,
		FileID:        r.FileID,
		FileURL:       "/files/" + r.FileID,
		FileName:      r.FileName,
		FileSize:      r.FileSize,
		ContentType:   r.ContentType,
		PhoneNumber:   r.PhoneNumber,
		CallDuration:  r.CallDuration,
		CallTimestamp: r.CallTimestamp,
		UploadedAt:    r.CreatedAt,
	}
}

func toListResponse(recs []Recording) []RecordingResponse {
	res := make([]RecordingResponse, len(recs))
	for i, r := range recs {
		res[i] = ToResponse(r)
	}
	return res
}
