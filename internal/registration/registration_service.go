// Package registration drives an employee from provisioned to activated and
// owns the pairing-code flows that hand a device its session.
package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"callsync/internal/access"
	autherrors "callsync/internal/auth/errors"
	"callsync/internal/auth/token"
	"callsync/internal/codegen"
	"callsync/internal/employee"
	employeeerrors "callsync/internal/employee/errors"
	"callsync/internal/notification"
	registrationerrors "callsync/internal/registration/errors"
	"callsync/internal/shared/audit"
	"callsync/internal/shared/contextutil"
	"callsync/internal/shared/dbutil"
	"callsync/internal/shared/phone"
	"callsync/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	docKindIDProof = "id_proof"
	docKindPhoto   = "photo"
)

type Options struct {
	PhoneRegion  string
	TempCodeTTL  time.Duration
	Codes        codegen.Generator
	MaxCodeTries int
	Now          func() time.Time
}

type Service interface {
	UploadDocuments(ctx context.Context, id string, docs Documents) (employee.EmployeeResponse, error)
	CompleteRegistration(ctx context.Context, id string) (employee.EmployeeResponse, error)
	Activate(ctx context.Context, id string, req ActivateRequest) (employee.EmployeeResponse, error)
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	IssueTempCode(ctx context.Context, employeeID string) (SendCodeResponse, error)
	ValidateCode(ctx context.Context, code string) (ValidateCodeResponse, error)
}

type service struct {
	repo     employee.Repository
	docs     storage.ObjectStore
	issuer   token.Issuer
	guard    access.Guard
	notifier notification.Notifier
	rdb      *redis.Client
	audit    audit.Logger
	opts     Options
	logger   *zap.Logger
}

func NewService(
	repo employee.Repository,
	docs storage.ObjectStore,
	issuer token.Issuer,
	guard access.Guard,
	notifier notification.Notifier,
	rdb *redis.Client,
	auditLogger audit.Logger,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("registration.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("registration.service")
	}
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	if opts.Codes == nil {
		opts.Codes = codegen.New()
	}
	if opts.MaxCodeTries <= 0 {
		opts.MaxCodeTries = codegen.DefaultMaxAttempts
	}
	if opts.TempCodeTTL <= 0 {
		opts.TempCodeTTL = 10 * time.Minute
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = "IN"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		repo:     repo,
		docs:     docs,
		issuer:   issuer,
		guard:    guard,
		notifier: notifier,
		rdb:      rdb,
		audit:    auditLogger,
		opts:     opts,
		logger:   l,
	}
}

// load returns a live (not soft-deleted) employee.
func (s *service) load(ctx context.Context, id string) (*employee.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, employeeerrors.ErrInvalidEmployeeID
	}

	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, employee.MapRepositoryError(err)
	}
	if emp.IsDeleted() {
		return nil, employeeerrors.ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *service) UploadDocuments(ctx context.Context, id string, docs Documents) (employee.EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if docs.IDProof.Body == nil || docs.Photo.Body == nil {
		return employee.EmployeeResponse{}, registrationerrors.ErrDocumentsMissing
	}

	emp, err := s.load(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if emp.RegistrationCompleted {
		return employee.EmployeeResponse{}, registrationerrors.ErrAlreadyCompleted
	}

	idProof, err := s.putDocument(ctx, id, docKindIDProof, docs.IDProof)
	if err != nil {
		log.Error("store id proof failed", zap.String("employee_id", id), zap.Error(err))
		return employee.EmployeeResponse{}, registrationerrors.ErrStorageUnavailable.WithCause(err)
	}
	photo, err := s.putDocument(ctx, id, docKindPhoto, docs.Photo)
	if err != nil {
		log.Error("store photo failed", zap.String("employee_id", id), zap.Error(err))
		s.discard(ctx, idProof)
		return employee.EmployeeResponse{}, registrationerrors.ErrStorageUnavailable.WithCause(err)
	}

	updated, err := s.repo.UpdateIf(ctx, id,
		employee.Guard{RegistrationCompleted: employee.Is(false)},
		map[string]any{
			"documents_uploaded": true,
			"id_proof_file_id":   idProof,
			"photo_file_id":      photo,
		},
	)
	if err != nil {
		s.discard(ctx, idProof, photo)
		if errors.Is(err, employee.ErrPreconditionFailed) {
			return employee.EmployeeResponse{}, s.classify(ctx, id, registrationerrors.ErrAlreadyCompleted)
		}
		log.Error("record documents failed", zap.String("employee_id", id), zap.Error(err))
		return employee.EmployeeResponse{}, employee.MapRepositoryError(err)
	}

	// Replaced uploads are no longer referenced by any row.
	if emp.IDProofFileID != nil && *emp.IDProofFileID != idProof {
		s.discard(ctx, *emp.IDProofFileID)
	}
	if emp.PhotoFileID != nil && *emp.PhotoFileID != photo {
		s.discard(ctx, *emp.PhotoFileID)
	}

	employee.InvalidateStats(ctx, s.rdb, log)

	log.Info("employee documents uploaded", zap.String("employee_id", id))
	return employee.ToResponse(*updated), nil
}

func (s *service) putDocument(ctx context.Context, employeeID, kind string, doc Document) (string, error) {
	handle, _, err := s.docs.Put(ctx, doc.Body, storage.ObjectInfo{
		Name:        doc.Name,
		ContentType: doc.ContentType,
		Metadata: map[string]string{
			"employee_id": employeeID,
			"kind":        kind,
		},
	})
	return handle, err
}

// discard removes payloads nothing references any more. Failures leave an
// orphan behind and are only logged.
func (s *service) discard(ctx context.Context, handles ...string) {
	log := contextutil.GetLogger(ctx, s.logger)
	for _, h := range handles {
		if h == "" {
			continue
		}
		if err := s.docs.Delete(ctx, h); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warn("discard document failed", zap.String("handle", h), zap.Error(err))
		}
	}
}

// classify explains why a guarded update matched nothing: the row is gone,
// or it moved to a state where stateErr applies.
func (s *service) classify(ctx context.Context, id string, stateErr error) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return stateErr
}

func (s *service) CompleteRegistration(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	emp, err := s.load(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if emp.RegistrationCompleted {
		return employee.EmployeeResponse{}, registrationerrors.ErrAlreadyCompleted
	}
	if !emp.DocumentsUploaded {
		return employee.EmployeeResponse{}, registrationerrors.ErrDocumentsNotUploaded
	}

	updated, err := s.repo.UpdateIf(ctx, id,
		employee.Guard{
			DocumentsUploaded:     employee.Is(true),
			RegistrationCompleted: employee.Is(false),
		},
		map[string]any{
			"registration_completed": true,
			"activated":              true,
		},
	)
	if err != nil {
		if errors.Is(err, employee.ErrPreconditionFailed) {
			return employee.EmployeeResponse{}, s.classify(ctx, id, registrationerrors.ErrAlreadyCompleted)
		}
		log.Error("complete registration failed", zap.String("employee_id", id), zap.Error(err))
		return employee.EmployeeResponse{}, employee.MapRepositoryError(err)
	}

	employee.InvalidateStats(ctx, s.rdb, log)
	s.audit.Log(ctx, audit.Entry{
		Action:  audit.ActionRegistrationCompleted,
		Message: "registration approved",
		Meta:    s.auditMeta(ctx, id),
	})

	log.Info("registration completed", zap.String("employee_id", id))
	return employee.ToResponse(*updated), nil
}

// Activate is the administrative fast path. An employee who has neither an
// approved registration nor a credential gets one set here, otherwise they
// could never log in.
func (s *service) Activate(ctx context.Context, id string, req ActivateRequest) (employee.EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	emp, err := s.load(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if emp.Activated {
		return employee.ToResponse(*emp), nil
	}

	guard := employee.Guard{Activated: employee.Is(false)}
	changes := map[string]any{"activated": true}

	if !emp.RegistrationCompleted && !emp.HasCredential() {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || req.Password == "" {
			return employee.EmployeeResponse{}, registrationerrors.ErrCredentialRequired
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return employee.EmployeeResponse{}, err
		}
		guard.CredentialAbsent = true
		changes["email"] = email
		changes["password_hash"] = string(hash)
	}

	updated, err := s.repo.UpdateIf(ctx, id, guard, changes)
	if err != nil {
		if errors.Is(err, employee.ErrPreconditionFailed) {
			current, loadErr := s.load(ctx, id)
			if loadErr != nil {
				return employee.EmployeeResponse{}, loadErr
			}
			if current.Activated {
				return employee.ToResponse(*current), nil
			}
			return employee.EmployeeResponse{}, registrationerrors.ErrConcurrentChange
		}
		log.Warn("activate employee failed", zap.String("employee_id", id), zap.Error(err))
		return employee.EmployeeResponse{}, employee.MapRepositoryError(err)
	}

	employee.InvalidateStats(ctx, s.rdb, log)
	s.audit.Log(ctx, audit.Entry{
		Action:  audit.ActionEmployeeActivated,
		Message: "employee activated",
		Meta:    s.auditMeta(ctx, id),
	})

	log.Info("employee activated", zap.String("employee_id", id))
	return employee.ToResponse(*updated), nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	code := codegen.Normalize(req.EmployeeCode)
	if !codegen.IsPermanent(code) {
		return RegisterResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	emp, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return RegisterResponse{}, employee.MapRepositoryError(err)
	}
	if !emp.RegistrationCompleted {
		return RegisterResponse{}, registrationerrors.ErrRegistrationNotCompleted
	}
	if emp.HasCredential() {
		return RegisterResponse{}, registrationerrors.ErrAlreadyRegistered
	}

	phoneNumber, err := phone.Normalize(req.PhoneNumber, s.opts.PhoneRegion)
	if err != nil {
		return RegisterResponse{}, employeeerrors.ErrInvalidPhone
	}
	if emp.PhoneNumber != nil && *emp.PhoneNumber != phoneNumber {
		log.Warn("register phone mismatch", zap.String("employee_id", emp.ID.String()))
		return RegisterResponse{}, registrationerrors.ErrPhoneMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResponse{}, err
	}

	updated, err := s.repo.UpdateIf(ctx, emp.ID.String(),
		employee.Guard{
			RegistrationCompleted: employee.Is(true),
			CredentialAbsent:      true,
		},
		map[string]any{
			"email":         strings.ToLower(strings.TrimSpace(req.Email)),
			"password_hash": string(hash),
			"activated":     true,
		},
	)
	if err != nil {
		if errors.Is(err, employee.ErrPreconditionFailed) {
			return RegisterResponse{}, registrationerrors.ErrAlreadyRegistered
		}
		log.Warn("register employee failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
		return RegisterResponse{}, employee.MapRepositoryError(err)
	}

	employee.InvalidateStats(ctx, s.rdb, log)

	log.Info("employee registered", zap.String("employee_id", updated.ID.String()))
	return RegisterResponse{Registered: true, Employee: employee.ToSummary(*updated)}, nil
}

// IssueTempCode is the only way a one-time code comes into existence. Admins
// may issue for anyone and see the code; employees only for themselves.
func (s *service) IssueTempCode(ctx context.Context, employeeID string) (SendCodeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	principal, _ := contextutil.GetPrincipal(ctx)
	if employeeID == "" && !principal.IsAdmin() {
		employeeID = principal.ID
	}

	decision := s.guard.Authorize(principal, access.ActionIssueCode, access.Resource{
		Kind:    access.KindEmployee,
		OwnerID: employeeID,
	})
	if err := decision.Err(); err != nil {
		log.Warn("issue temp code denied",
			zap.String("principal_id", principal.ID),
			zap.String("employee_id", employeeID),
			zap.String("reason", string(decision.Reason)),
		)
		return SendCodeResponse{}, err
	}

	emp, err := s.load(ctx, employeeID)
	if err != nil {
		return SendCodeResponse{}, err
	}
	if !emp.Activated {
		return SendCodeResponse{}, autherrors.ErrNotActivated
	}

	expiresAt := s.opts.Now().Add(s.opts.TempCodeTTL).UTC()
	code, err := codegen.Assign(s.opts.Codes, codegen.TempPrefix, s.opts.MaxCodeTries, func(candidate string) error {
		_, err := s.repo.UpdateIf(ctx, employeeID,
			employee.Guard{Activated: employee.Is(true)},
			map[string]any{
				"temp_code":            candidate,
				"temp_code_expires_at": expiresAt,
			},
		)
		if dbutil.IsUniqueViolation(err, employee.ConstraintTempCode) {
			return codegen.ErrCollision
		}
		return err
	})
	if err != nil {
		if errors.Is(err, employee.ErrPreconditionFailed) {
			return SendCodeResponse{}, s.classify(ctx, employeeID, autherrors.ErrNotActivated)
		}
		log.Error("issue temp code failed", zap.String("employee_id", employeeID), zap.Error(err))
		return SendCodeResponse{}, employee.MapRepositoryError(err)
	}

	msg := notification.TempCodeMessage(emp.Name, code, deref(emp.PhoneNumber), deref(emp.Email), s.opts.TempCodeTTL)
	delivery := notification.Dispatch(ctx, s.notifier, msg, log)

	s.audit.Log(ctx, audit.Entry{
		Action:  audit.ActionTempCodeIssued,
		Message: "one-time code issued",
		Meta: map[string]any{
			"employee_id":  employeeID,
			"principal_id": principal.ID,
			"delivered":    delivery.Delivered,
		},
	})

	resp := SendCodeResponse{
		EmployeeID: employeeID,
		ExpiresAt:  expiresAt,
		Delivery:   delivery,
	}
	if principal.IsAdmin() {
		resp.Code = code
	}

	log.Info("temp code issued",
		zap.String("employee_id", employeeID),
		zap.Bool("delivered", delivery.Delivered),
	)
	return resp, nil
}

// ValidateCode pairs a device. A permanent code can be used any number of
// times and revokes any outstanding temp code; a temp code is consumed by the
// single conditional write that finds it.
func (s *service) ValidateCode(ctx context.Context, raw string) (ValidateCodeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	code := codegen.Normalize(raw)

	var (
		emp *employee.Employee
		err error
	)
	switch {
	case codegen.IsPermanent(code):
		emp, err = s.repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ValidateCodeResponse{}, registrationerrors.ErrInvalidCode
			}
			return ValidateCodeResponse{}, employee.MapRepositoryError(err)
		}
		if !emp.Activated {
			return ValidateCodeResponse{}, autherrors.ErrNotActivated
		}
		if emp.TempCode != nil {
			if err := s.repo.ClearTempCode(ctx, emp.ID.String()); err != nil {
				log.Error("clear outstanding temp code failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
				return ValidateCodeResponse{}, employee.MapRepositoryError(err)
			}
			emp.TempCode, emp.TempCodeExpiresAt = nil, nil
		}
	case codegen.IsTemp(code):
		emp, err = s.repo.ConsumeTempCode(ctx, code, s.opts.Now())
		if err != nil {
			if errors.Is(err, employee.ErrPreconditionFailed) {
				return ValidateCodeResponse{}, s.classifyTempCode(ctx, code)
			}
			return ValidateCodeResponse{}, employee.MapRepositoryError(err)
		}
	default:
		return ValidateCodeResponse{}, registrationerrors.ErrMalformedCode
	}

	signed, err := s.issuer.Issue(emp.ID.String(), contextutil.RoleEmployee, map[string]string{"code": emp.Code})
	if err != nil {
		log.Error("issue device token failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
		return ValidateCodeResponse{}, err
	}

	log.Info("device paired",
		zap.String("employee_id", emp.ID.String()),
		zap.Bool("temp_code", codegen.IsTemp(code)),
	)
	return ValidateCodeResponse{
		Token:     signed.Value,
		ExpiresAt: signed.ExpiresAt,
		Employee:  employee.ToResponse(*emp),
	}, nil
}

// classifyTempCode runs after the consuming write matched nothing.
func (s *service) classifyTempCode(ctx context.Context, code string) error {
	log := contextutil.GetLogger(ctx, s.logger)

	emp, err := s.repo.FindByTempCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return registrationerrors.ErrInvalidCode
		}
		return employee.MapRepositoryError(err)
	}

	if emp.TempCodeExpired(s.opts.Now()) {
		if err := s.repo.ClearTempCode(ctx, emp.ID.String()); err != nil {
			log.Warn("clear expired temp code failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
		}
		return registrationerrors.ErrCodeExpired
	}
	if !emp.Activated {
		return autherrors.ErrNotActivated
	}
	return registrationerrors.ErrInvalidCode
}

func (s *service) auditMeta(ctx context.Context, employeeID string) map[string]any {
	md := contextutil.ExtractMetadata(ctx)
	return map[string]any{
		"employee_id":  employeeID,
		"principal_id": md.PrincipalID,
		"request_id":   md.RequestID,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
