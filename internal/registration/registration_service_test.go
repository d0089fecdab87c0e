package registration_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"callsync/internal/access"
	autherrors "callsync/internal/auth/errors"
	"callsync/internal/auth/token"
	"callsync/internal/employee"
	employeeerrors "callsync/internal/employee/errors"
	"callsync/internal/notification"
	"callsync/internal/registration"
	registrationerrors "callsync/internal/registration/errors"
	"callsync/internal/shared/audit"
	"callsync/internal/shared/contextutil"
	"callsync/internal/storage"

	employeeMock "callsync/internal/employee/mock"
	notificationMock "callsync/internal/notification/mock"
	storageMock "callsync/internal/storage/mock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixedCodes struct {
	mu    sync.Mutex
	codes []string
	n     int
}

func (g *fixedCodes) Generate(prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.n
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}
	g.n++
	return prefix + g.codes[i], nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAudit) Log(_ context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

type serviceDeps struct {
	service  registration.Service
	repo     *employeeMock.MockRepository
	docs     *storageMock.MockObjectStore
	notifier *notificationMock.MockNotifier
	issuer   token.Issuer
	audit    *recordingAudit
}

func setupServiceTest(t *testing.T, codes ...string) *serviceDeps {
	ctrl := gomock.NewController(t)

	guard, err := access.NewGuard(access.DefaultPolicy)
	require.NoError(t, err)

	if len(codes) == 0 {
		codes = []string{"XYZ789"}
	}

	deps := &serviceDeps{
		repo:     employeeMock.NewMockRepository(ctrl),
		docs:     storageMock.NewMockObjectStore(ctrl),
		notifier: notificationMock.NewMockNotifier(ctrl),
		issuer:   token.NewIssuerWithClock("test-secret", time.Hour, func() time.Time { return fixedNow }),
		audit:    &recordingAudit{},
	}
	deps.service = registration.NewService(
		deps.repo, deps.docs, deps.issuer, guard, deps.notifier, nil, deps.audit,
		registration.Options{
			PhoneRegion: "IN",
			TempCodeTTL: 10 * time.Minute,
			Codes:       &fixedCodes{codes: codes},
			Now:         func() time.Time { return fixedNow },
		},
	)
	return deps
}

func strPtr(s string) *string { return &s }

func newEmployee() *employee.Employee {
	return &employee.Employee{
		ID:          uuid.New(),
		Code:        "ABC234",
		Name:        "Rohan",
		Department:  "Sales",
		PhoneNumber: strPtr("+911234567890"),
	}
}

func adminCtx() context.Context {
	return contextutil.WithPrincipal(context.Background(), contextutil.Principal{ID: uuid.NewString(), Role: contextutil.RoleAdmin})
}

func employeeCtx(id string) context.Context {
	return contextutil.WithPrincipal(context.Background(), contextutil.Principal{ID: id, Role: contextutil.RoleEmployee})
}

func docs() registration.Documents {
	return registration.Documents{
		IDProof: registration.Document{Body: strings.NewReader("id"), Name: "id.jpg", ContentType: "image/jpeg"},
		Photo:   registration.Document{Body: strings.NewReader("photo"), Name: "me.png", ContentType: "image/png"},
	}
}

func TestRegistrationService_UploadDocuments(t *testing.T) {
	t.Run("stores both payloads and replaces old ones", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.IDProofFileID = strPtr("old-id")
		id := emp.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.docs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("h-id", int64(2), nil)
		deps.docs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("h-photo", int64(5), nil)
		deps.repo.EXPECT().
			UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, g employee.Guard, changes map[string]any) (*employee.Employee, error) {
				require.NotNil(t, g.RegistrationCompleted)
				assert.False(t, *g.RegistrationCompleted)
				assert.Equal(t, "h-id", changes["id_proof_file_id"])
				assert.Equal(t, "h-photo", changes["photo_file_id"])
				updated := *emp
				updated.DocumentsUploaded = true
				return &updated, nil
			})
		deps.docs.EXPECT().Delete(gomock.Any(), "old-id").Return(nil)

		resp, err := deps.service.UploadDocuments(adminCtx(), id, docs())

		require.NoError(t, err)
		assert.True(t, resp.DocumentsUploaded)
		assert.Equal(t, employee.StateDocumentsUploaded, resp.State)
	})

	t.Run("rejected after completion", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.DocumentsUploaded, emp.RegistrationCompleted = true, true

		deps.repo.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)

		_, err := deps.service.UploadDocuments(adminCtx(), emp.ID.String(), docs())
		assert.ErrorIs(t, err, registrationerrors.ErrAlreadyCompleted)
	})

	t.Run("second payload fails, first is removed", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()

		deps.repo.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)
		deps.docs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("h-id", int64(2), nil)
		deps.docs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("", int64(0), errors.New("disk full"))
		deps.docs.EXPECT().Delete(gomock.Any(), "h-id").Return(nil)

		_, err := deps.service.UploadDocuments(adminCtx(), emp.ID.String(), docs())
		assert.ErrorIs(t, err, registrationerrors.ErrStorageUnavailable)
	})

	t.Run("completed concurrently, new payloads are removed", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		id := emp.ID.String()
		completed := *emp
		completed.RegistrationCompleted = true

		gomock.InOrder(
			deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil),
			deps.repo.EXPECT().UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).Return(nil, employee.ErrPreconditionFailed),
			deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(&completed, nil),
		)
		deps.docs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("h-id", int64(2), nil)
		deps.docs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("h-photo", int64(5), nil)
		deps.docs.EXPECT().Delete(gomock.Any(), "h-id").Return(nil)
		deps.docs.EXPECT().Delete(gomock.Any(), "h-photo").Return(storage.ErrNotFound)

		_, err := deps.service.UploadDocuments(adminCtx(), id, docs())
		assert.ErrorIs(t, err, registrationerrors.ErrAlreadyCompleted)
	})

	t.Run("missing documents", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.UploadDocuments(adminCtx(), uuid.NewString(), registration.Documents{})
		assert.ErrorIs(t, err, registrationerrors.ErrDocumentsMissing)
	})
}

func TestRegistrationService_CompleteRegistration(t *testing.T) {
	t.Run("documents required", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		deps.repo.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)

		_, err := deps.service.CompleteRegistration(adminCtx(), emp.ID.String())
		assert.ErrorIs(t, err, registrationerrors.ErrDocumentsNotUploaded)
	})

	t.Run("approves and activates", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.DocumentsUploaded = true
		id := emp.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.repo.EXPECT().
			UpdateIf(gomock.Any(), id, gomock.Any(), map[string]any{"registration_completed": true, "activated": true}).
			DoAndReturn(func(_ context.Context, _ string, g employee.Guard, _ map[string]any) (*employee.Employee, error) {
				assert.True(t, *g.DocumentsUploaded)
				assert.False(t, *g.RegistrationCompleted)
				updated := *emp
				updated.RegistrationCompleted, updated.Activated = true, true
				return &updated, nil
			})

		resp, err := deps.service.CompleteRegistration(adminCtx(), id)

		require.NoError(t, err)
		assert.True(t, resp.Activated)
		assert.Equal(t, []string{audit.ActionRegistrationCompleted}, deps.audit.actions())
	})

	t.Run("soft deleted employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.DeletedAt = gorm.DeletedAt{Time: fixedNow, Valid: true}
		deps.repo.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)

		_, err := deps.service.CompleteRegistration(adminCtx(), emp.ID.String())
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.CompleteRegistration(adminCtx(), "nope")
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeID)
	})
}

func TestRegistrationService_Activate(t *testing.T) {
	t.Run("credential required on bare fast path", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		deps.repo.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)

		_, err := deps.service.Activate(adminCtx(), emp.ID.String(), registration.ActivateRequest{})
		assert.ErrorIs(t, err, registrationerrors.ErrCredentialRequired)
	})

	t.Run("fast path sets credential", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		id := emp.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.repo.EXPECT().
			UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, g employee.Guard, changes map[string]any) (*employee.Employee, error) {
				assert.True(t, g.CredentialAbsent)
				assert.False(t, *g.Activated)
				assert.Equal(t, "rohan@example.com", changes["email"])
				hash, _ := changes["password_hash"].(string)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
				updated := *emp
				updated.Activated = true
				updated.Email = strPtr("rohan@example.com")
				updated.PasswordHash = strPtr(hash)
				return &updated, nil
			})

		resp, err := deps.service.Activate(adminCtx(), id, registration.ActivateRequest{
			Email:    " Rohan@Example.com ",
			Password: "s3cret-pass",
		})

		require.NoError(t, err)
		assert.True(t, resp.Activated)
		assert.True(t, resp.HasCredential)
		assert.Equal(t, []string{audit.ActionEmployeeActivated}, deps.audit.actions())
	})

	t.Run("existing credential only flips the flag", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.PasswordHash = strPtr("hash")
		id := emp.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.repo.EXPECT().
			UpdateIf(gomock.Any(), id, employee.Guard{Activated: employee.Is(false)}, map[string]any{"activated": true}).
			DoAndReturn(func(context.Context, string, employee.Guard, map[string]any) (*employee.Employee, error) {
				updated := *emp
				updated.Activated = true
				return &updated, nil
			})

		resp, err := deps.service.Activate(adminCtx(), id, registration.ActivateRequest{})
		require.NoError(t, err)
		assert.True(t, resp.Activated)
	})

	t.Run("already active is a no-op", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.Activated = true
		deps.repo.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)

		resp, err := deps.service.Activate(adminCtx(), emp.ID.String(), registration.ActivateRequest{})
		require.NoError(t, err)
		assert.True(t, resp.Activated)
		assert.Empty(t, deps.audit.actions())
	})

	t.Run("email taken", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		id := emp.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.repo.EXPECT().UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).
			Return(nil, &pgconn.PgError{Code: "23505", ConstraintName: employee.ConstraintEmail})

		_, err := deps.service.Activate(adminCtx(), id, registration.ActivateRequest{Email: "a@b.co", Password: "password1"})
		assert.ErrorIs(t, err, employeeerrors.ErrDuplicateEmail)
	})
}

func registerRequest() registration.RegisterRequest {
	return registration.RegisterRequest{
		Email:        "rohan@example.com",
		Password:     "s3cret-pass",
		PhoneNumber:  "+91 12345 67890",
		EmployeeCode: "abc234",
	}
}

func TestRegistrationService_Register(t *testing.T) {
	t.Run("unknown code", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(&employee.Employee{}, gorm.ErrRecordNotFound)

		_, err := deps.service.Register(context.Background(), registerRequest())
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("before approval", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(newEmployee(), nil)

		_, err := deps.service.Register(context.Background(), registerRequest())
		assert.ErrorIs(t, err, registrationerrors.ErrRegistrationNotCompleted)
	})

	t.Run("already registered", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.RegistrationCompleted, emp.Activated = true, true
		emp.PasswordHash = strPtr("hash")
		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(emp, nil)

		_, err := deps.service.Register(context.Background(), registerRequest())
		assert.ErrorIs(t, err, registrationerrors.ErrAlreadyRegistered)
	})

	t.Run("phone mismatch", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.RegistrationCompleted = true
		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(emp, nil)

		req := registerRequest()
		req.PhoneNumber = "+919876543210"
		_, err := deps.service.Register(context.Background(), req)
		assert.ErrorIs(t, err, registrationerrors.ErrPhoneMismatch)
	})

	t.Run("sets credential", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.RegistrationCompleted, emp.Activated = true, true
		id := emp.ID.String()

		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(emp, nil)
		deps.repo.EXPECT().
			UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, g employee.Guard, changes map[string]any) (*employee.Employee, error) {
				assert.True(t, *g.RegistrationCompleted)
				assert.True(t, g.CredentialAbsent)
				assert.Equal(t, true, changes["activated"])
				updated := *emp
				updated.PasswordHash = strPtr(changes["password_hash"].(string))
				return &updated, nil
			})

		resp, err := deps.service.Register(context.Background(), registerRequest())

		require.NoError(t, err)
		assert.True(t, resp.Registered)
		assert.Equal(t, "ABC234", resp.Employee.Code)
	})

	t.Run("lost race to another registration", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.RegistrationCompleted = true

		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(emp, nil)
		deps.repo.EXPECT().UpdateIf(gomock.Any(), emp.ID.String(), gomock.Any(), gomock.Any()).
			Return(nil, employee.ErrPreconditionFailed)

		_, err := deps.service.Register(context.Background(), registerRequest())
		assert.ErrorIs(t, err, registrationerrors.ErrAlreadyRegistered)
	})
}

func TestRegistrationService_IssueTempCode(t *testing.T) {
	t.Run("employee cannot issue for someone else", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.IssueTempCode(employeeCtx(uuid.NewString()), uuid.NewString())
		assert.ErrorIs(t, err, autherrors.ErrForbidden)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.IssueTempCode(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, autherrors.ErrTokenMissing)
	})

	t.Run("admin sees the code, delivery failure is swallowed", func(t *testing.T) {
		deps := setupServiceTest(t, "AAAAAA", "BBBBBB")
		emp := newEmployee()
		emp.Activated = true
		id := emp.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		gomock.InOrder(
			deps.repo.EXPECT().UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).
				Return(nil, &pgconn.PgError{Code: "23505", ConstraintName: employee.ConstraintTempCode}),
			deps.repo.EXPECT().UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, g employee.Guard, changes map[string]any) (*employee.Employee, error) {
					assert.True(t, *g.Activated)
					assert.Equal(t, "TBBBBBB", changes["temp_code"])
					assert.Equal(t, fixedNow.Add(10*time.Minute), changes["temp_code_expires_at"])
					return emp, nil
				}),
		)
		deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
			Return(notification.DeliveryResult{Channel: "email"}, errors.New("smtp down"))

		resp, err := deps.service.IssueTempCode(adminCtx(), id)

		require.NoError(t, err)
		assert.Equal(t, "TBBBBBB", resp.Code)
		assert.False(t, resp.Delivery.Delivered)
		assert.Equal(t, fixedNow.Add(10*time.Minute), resp.ExpiresAt)
		assert.Equal(t, []string{audit.ActionTempCodeIssued}, deps.audit.actions())
	})

	t.Run("employee issues for self without seeing the code", func(t *testing.T) {
		deps := setupServiceTest(t, "CCCCCC")
		emp := newEmployee()
		emp.Activated = true
		id := emp.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.repo.EXPECT().UpdateIf(gomock.Any(), id, gomock.Any(), gomock.Any()).Return(emp, nil)
		deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg notification.Message) (notification.DeliveryResult, error) {
				assert.Equal(t, "+911234567890", msg.ToPhone)
				assert.Contains(t, msg.Text, "TCCCCCC")
				return notification.DeliveryResult{Channel: "queue", Delivered: true}, nil
			})

		resp, err := deps.service.IssueTempCode(employeeCtx(id), "")

		require.NoError(t, err)
		assert.Empty(t, resp.Code)
		assert.Equal(t, id, resp.EmployeeID)
		assert.True(t, resp.Delivery.Delivered)
	})

	t.Run("not activated", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		deps.repo.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)

		_, err := deps.service.IssueTempCode(adminCtx(), emp.ID.String())
		assert.ErrorIs(t, err, autherrors.ErrNotActivated)
	})
}

func TestRegistrationService_ValidateCode(t *testing.T) {
	t.Run("permanent code returns a device token", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.Activated = true
		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(emp, nil)

		resp, err := deps.service.ValidateCode(context.Background(), " abc234 ")

		require.NoError(t, err)
		assert.Equal(t, emp.ID.String(), resp.Employee.ID)

		p, err := deps.issuer.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, emp.ID.String(), p.ID)
		assert.Equal(t, contextutil.RoleEmployee, p.Role)
	})

	t.Run("permanent code revokes an outstanding temp code", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.Activated = true
		emp.TempCode = strPtr("TABC234")
		valid := fixedNow.Add(time.Minute)
		emp.TempCodeExpiresAt = &valid

		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(emp, nil)
		deps.repo.EXPECT().ClearTempCode(gomock.Any(), emp.ID.String()).Return(nil)

		resp, err := deps.service.ValidateCode(context.Background(), "ABC234")

		require.NoError(t, err)
		assert.Equal(t, emp.ID.String(), resp.Employee.ID)
		assert.Nil(t, emp.TempCode)
	})

	t.Run("temp code revocation failure blocks pairing", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.Activated = true
		emp.TempCode = strPtr("TABC234")

		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(emp, nil)
		deps.repo.EXPECT().ClearTempCode(gomock.Any(), emp.ID.String()).Return(errors.New("connection reset"))

		_, err := deps.service.ValidateCode(context.Background(), "ABC234")
		assert.Error(t, err)
	})

	t.Run("permanent code of inactive employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByCode(gomock.Any(), "ABC234").Return(newEmployee(), nil)

		_, err := deps.service.ValidateCode(context.Background(), "ABC234")
		assert.ErrorIs(t, err, autherrors.ErrNotActivated)
	})

	t.Run("unknown permanent code", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByCode(gomock.Any(), "ZZZ999").Return(&employee.Employee{}, gorm.ErrRecordNotFound)

		_, err := deps.service.ValidateCode(context.Background(), "ZZZ999")
		assert.ErrorIs(t, err, registrationerrors.ErrInvalidCode)
	})

	t.Run("temp code is single use", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.Activated = true

		gomock.InOrder(
			deps.repo.EXPECT().ConsumeTempCode(gomock.Any(), "TABC234", fixedNow).Return(emp, nil),
			deps.repo.EXPECT().ConsumeTempCode(gomock.Any(), "TABC234", fixedNow).Return(nil, employee.ErrPreconditionFailed),
			deps.repo.EXPECT().FindByTempCode(gomock.Any(), "TABC234").Return(&employee.Employee{}, gorm.ErrRecordNotFound),
		)

		_, err := deps.service.ValidateCode(context.Background(), "tabc234")
		require.NoError(t, err)

		_, err = deps.service.ValidateCode(context.Background(), "TABC234")
		assert.ErrorIs(t, err, registrationerrors.ErrInvalidCode)
	})

	t.Run("expired temp code", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		emp.Activated = true
		emp.TempCode = strPtr("TABC234")
		expired := fixedNow.Add(-time.Second)
		emp.TempCodeExpiresAt = &expired

		deps.repo.EXPECT().ConsumeTempCode(gomock.Any(), "TABC234", fixedNow).Return(nil, employee.ErrPreconditionFailed)
		deps.repo.EXPECT().FindByTempCode(gomock.Any(), "TABC234").Return(emp, nil)
		deps.repo.EXPECT().ClearTempCode(gomock.Any(), emp.ID.String()).Return(nil)

		_, err := deps.service.ValidateCode(context.Background(), "TABC234")
		assert.ErrorIs(t, err, registrationerrors.ErrCodeExpired)
	})

	t.Run("unexpired temp code of inactive employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := newEmployee()
		valid := fixedNow.Add(time.Minute)
		emp.TempCodeExpiresAt = &valid

		deps.repo.EXPECT().ConsumeTempCode(gomock.Any(), "TABC234", fixedNow).Return(nil, employee.ErrPreconditionFailed)
		deps.repo.EXPECT().FindByTempCode(gomock.Any(), "TABC234").Return(emp, nil)

		_, err := deps.service.ValidateCode(context.Background(), "TABC234")
		assert.ErrorIs(t, err, autherrors.ErrNotActivated)
	})

	t.Run("malformed", func(t *testing.T) {
		deps := setupServiceTest(t)

		for _, code := range []string{"", "ABC", "ABC23O", "XABC234", "TABC2345"} {
			_, err := deps.service.ValidateCode(context.Background(), code)
			assert.ErrorIs(t, err, registrationerrors.ErrMalformedCode, code)
		}
	})
}
