package employee

import "time"

type CreateEmployeeRequest struct {
	Name               string `json:"name" binding:"omitempty,max=255"`
	FirstName          string `json:"firstName" binding:"omitempty,max=120"`
	LastName           string `json:"lastName" binding:"omitempty,max=120"`
	Department         string `json:"department" binding:"required,max=120"`
	Designation        string `json:"designation" binding:"omitempty,max=120"`
	PhoneNumber        string `json:"phoneNumber" binding:"omitempty,max=32"`
	Email              string `json:"email" binding:"omitempty,email"`
	EmployeeInternalID string `json:"employeeInternalId" binding:"omitempty,max=64"`
	JoiningDate        string `json:"joiningDate" binding:"omitempty,datetime=2006-01-02"`
}

type ListQuery struct {
	Q        string
	Status   string // "active", "inactive" or empty for all
	Page     int
	PageSize int
}

type EmployeeResponse struct {
	ID                    string     `json:"id"`
	Code                  string     `json:"code"`
	Name                  string     `json:"name"`
	FirstName             string     `json:"firstName,omitempty"`
	LastName              string     `json:"lastName,omitempty"`
	Department            string     `json:"department"`
	Designation           string     `json:"designation,omitempty"`
	EmployeeInternalID    string     `json:"employeeInternalId,omitempty"`
	JoiningDate           string     `json:"joiningDate,omitempty"`
	PhoneNumber           string     `json:"phoneNumber,omitempty"`
	Email                 string     `json:"email,omitempty"`
	State                 State      `json:"state"`
	DocumentsUploaded     bool       `json:"documentsUploaded"`
	RegistrationCompleted bool       `json:"registrationCompleted"`
	Activated             bool       `json:"activated"`
	HasCredential         bool       `json:"hasCredential"`
	LastSyncAt            *time.Time `json:"lastSyncAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	IsDeleted             bool       `json:"isDeleted,omitempty"`
}

// SummaryResponse is the short form handed to devices after login or pairing.
type SummaryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type StatsResponse struct {
	TotalEmployees      int64 `json:"totalEmployees"`
	ActiveEmployees     int64 `json:"activeEmployees"`
	PendingRegistration int64 `json:"pendingRegistration"`
	TotalRecordings     int64 `json:"totalRecordings"`
}

func ToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:                    e.ID.String(),
		Code:                  e.Code,
		Name:                  e.Name,
		FirstName:             e.FirstName,
		LastName:              e.LastName,
		Department:            e.Department,
		Designation:           e.Designation,
		EmployeeInternalID:    e.EmployeeInternalID,
		PhoneNumber:           deref(e.PhoneNumber),
		Email:                 deref(e.Email),
		State:                 e.State(),
		DocumentsUploaded:     e.DocumentsUploaded,
		RegistrationCompleted: e.RegistrationCompleted,
		Activated:             e.Activated,
		HasCredential:         e.HasCredential(),
		LastSyncAt:            e.LastSyncAt,
		CreatedAt:             e.CreatedAt,
		IsDeleted:             e.IsDeleted(),
	}
	if e.JoiningDate != nil {
		resp.JoiningDate = e.JoiningDate.Format("2006-01-02")
	}
	return resp
}

func ToSummary(e Employee) SummaryResponse {
	return SummaryResponse{ID: e.ID.String(), Name: e.Name, Code: e.Code}
}

func toListResponse(emps []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(emps))
	for i, e := range emps {
		res[i] = ToResponse(e)
	}
	return res
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
