package auth

import (
	"time"

	"callsync/internal/employee"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AdminResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Token     string                    `json:"token"`
	ExpiresAt time.Time                 `json:"expiresAt"`
	Employee  *employee.SummaryResponse `json:"employee,omitempty"`
	Admin     *AdminResponse            `json:"admin,omitempty"`
}

type MeResponse struct {
	ID       string                     `json:"id"`
	Role     string                     `json:"role"`
	Admin    *AdminResponse             `json:"admin,omitempty"`
	Employee *employee.EmployeeResponse `json:"employee,omitempty"`
}

func toAdminResponse(a Admin) *AdminResponse {
	return &AdminResponse{ID: a.ID.String(), Name: a.Name, Email: a.Email}
}
