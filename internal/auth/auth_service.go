// Package auth signs in admins and employees and answers "who am I" for a
// bearer token. Pairing-code sign-in lives in the registration package.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	autherrors "callsync/internal/auth/errors"
	"callsync/internal/auth/token"
	"callsync/internal/employee"
	"callsync/internal/shared/audit"
	"callsync/internal/shared/contextutil"
	"callsync/internal/shared/dbutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service interface {
	EmployeeLogin(ctx context.Context, req LoginRequest) (LoginResponse, error)
	AdminLogin(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Me(ctx context.Context) (MeResponse, error)
	SeedAdmin(ctx context.Context, email, password, name string) error
}

type service struct {
	repo      Repository
	employees employee.Repository
	issuer    token.Issuer
	audit     audit.Logger
	logger    *zap.Logger
}

func NewService(
	repo Repository,
	employees employee.Repository,
	issuer token.Issuer,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &service{
		repo:      repo,
		employees: employees,
		issuer:    issuer,
		audit:     auditLogger,
		logger:    l,
	}
}

// An unknown email still pays for one bcrypt compare.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("callsync-dummy-password"), bcrypt.DefaultCost)
	return h
})

func checkPassword(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) EmployeeLogin(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	email := normalizeEmail(req.Email)

	emp, err := s.employees.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("find employee by email failed", zap.Error(err))
		return LoginResponse{}, employee.MapRepositoryError(err)
	}

	hash := ""
	if err == nil && emp.PasswordHash != nil {
		hash = *emp.PasswordHash
	}
	if !checkPassword(hash, req.Password) {
		log.Info("employee login rejected")
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	if !emp.Activated {
		log.Info("employee login before activation", zap.String("employee_id", emp.ID.String()))
		return LoginResponse{}, autherrors.ErrNotActivated
	}

	signed, err := s.issuer.Issue(emp.ID.String(), contextutil.RoleEmployee, map[string]string{"code": emp.Code})
	if err != nil {
		return LoginResponse{}, err
	}

	summary := employee.ToSummary(*emp)
	log.Info("employee logged in", zap.String("employee_id", emp.ID.String()))
	return LoginResponse{Token: signed.Value, ExpiresAt: signed.ExpiresAt, Employee: &summary}, nil
}

func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	admin, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("find admin by email failed", zap.Error(err))
		return LoginResponse{}, err
	}

	hash := ""
	if err == nil {
		hash = admin.PasswordHash
	}
	if !checkPassword(hash, req.Password) {
		log.Warn("admin login rejected")
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	signed, err := s.issuer.Issue(admin.ID.String(), contextutil.RoleAdmin, nil)
	if err != nil {
		return LoginResponse{}, err
	}

	log.Info("admin logged in", zap.String("admin_id", admin.ID.String()))
	return LoginResponse{Token: signed.Value, ExpiresAt: signed.ExpiresAt, Admin: toAdminResponse(*admin)}, nil
}

func (s *service) Me(ctx context.Context) (MeResponse, error) {
	principal, ok := contextutil.GetPrincipal(ctx)
	if !ok {
		return MeResponse{}, autherrors.ErrTokenMissing
	}

	res := MeResponse{ID: principal.ID, Role: principal.Role}

	switch principal.Role {
	case contextutil.RoleAdmin:
		id, err := uuid.Parse(principal.ID)
		if err != nil {
			return MeResponse{}, autherrors.ErrInvalidToken
		}
		admin, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return MeResponse{}, autherrors.ErrPrincipalNotFound
			}
			return MeResponse{}, err
		}
		res.Admin = toAdminResponse(*admin)
	case contextutil.RoleEmployee:
		emp, err := s.employees.FindByID(ctx, principal.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return MeResponse{}, autherrors.ErrPrincipalNotFound
			}
			return MeResponse{}, employee.MapRepositoryError(err)
		}
		if emp.IsDeleted() {
			return MeResponse{}, autherrors.ErrPrincipalNotFound
		}
		resp := employee.ToResponse(*emp)
		res.Employee = &resp
	default:
		return MeResponse{}, autherrors.ErrForbidden
	}

	return res, nil
}

// SeedAdmin creates the bootstrap admin once. An existing admin with the same
// email is left untouched.
func (s *service) SeedAdmin(ctx context.Context, email, password, name string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.logger.Info("admin seed skipped, no credentials configured")
		return nil
	}

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if name == "" {
		name = "Admin"
	}

	admin := &Admin{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if dbutil.IsUniqueViolation(err, ConstraintAdminEmail) {
			return nil
		}
		return err
	}

	s.audit.Log(ctx, audit.Entry{
		Action:  audit.ActionAdminSeeded,
		Message: "bootstrap admin created",
		Meta:    map[string]any{"admin_id": admin.ID.String(), "email": email},
	})
	s.logger.Info("bootstrap admin created", zap.String("admin_id", admin.ID.String()))
	return nil
}
