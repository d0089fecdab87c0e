package registration

import (
	"io"
	"time"

	"callsync/internal/employee"
	"callsync/internal/notification"
)

type ActivateRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
}

type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8,max=72"`
	PhoneNumber  string `json:"phoneNumber" binding:"required"`
	EmployeeCode string `json:"employeeCode" binding:"required"`
}

type ValidateCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// SendCodeRequest may omit EmployeeID when an employee asks for their own code.
type SendCodeRequest struct {
	EmployeeID string `json:"employeeId" binding:"omitempty,uuid"`
}

type Document struct {
	Body        io.Reader
	Name        string
	ContentType string
}

type Documents struct {
	IDProof Document
	Photo   Document
}

type RegisterResponse struct {
	Registered bool                     `json:"registered"`
	Employee   employee.SummaryResponse `json:"employee"`
}

type ValidateCodeResponse struct {
	Token     string                    `json:"token"`
	ExpiresAt time.Time                 `json:"expiresAt"`
	Employee  employee.EmployeeResponse `json:"employee"`
}

type SendCodeResponse struct {
	EmployeeID string                      `json:"employeeId"`
	ExpiresAt  time.Time                   `json:"expiresAt"`
	Delivery   notification.DeliveryResult `json:"delivery"`
	// Code is only filled in for administrators.
	Code string `json:"code,omitempty"`
}
