package recording_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"callsync/internal/access"
	autherrors "callsync/internal/auth/errors"
	"callsync/internal/employee"
	employeeerrors "callsync/internal/employee/errors"
	"callsync/internal/recording"
	recordingerrors "callsync/internal/recording/errors"
	"callsync/internal/shared/audit"
	"callsync/internal/shared/contextutil"
	"callsync/internal/storage"

	employeeMock "callsync/internal/employee/mock"
	recordingMock "callsync/internal/recording/mock"
	storageMock "callsync/internal/storage/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type auditSink struct {
	entries []audit.Entry
}

func (a *auditSink) Log(_ context.Context, e audit.Entry) { a.entries = append(a.entries, e) }

type serviceDeps struct {
	service   recording.Service
	sqlMock   sqlmock.Sqlmock
	repo      *recordingMock.MockRepository
	employees *employeeMock.MockRepository
	store     *storageMock.MockObjectStore
	audit     *auditSink
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	guard, err := access.NewGuard(access.DefaultPolicy)
	require.NoError(t, err)

	deps := &serviceDeps{
		sqlMock:   sqlMock,
		repo:      recordingMock.NewMockRepository(ctrl),
		employees: employeeMock.NewMockRepository(ctrl),
		store:     storageMock.NewMockObjectStore(ctrl),
		audit:     &auditSink{},
	}
	deps.service = recording.NewService(db, deps.repo, deps.employees, deps.store, guard, nil, deps.audit)
	return deps
}

func asEmployee(id string) context.Context {
	return contextutil.WithPrincipal(context.Background(), contextutil.Principal{ID: id, Role: contextutil.RoleEmployee})
}

func asAdmin() context.Context {
	return contextutil.WithPrincipal(context.Background(), contextutil.Principal{ID: uuid.NewString(), Role: contextutil.RoleAdmin})
}

func activeEmployee() *employee.Employee {
	return &employee.Employee{ID: uuid.New(), Code: "ABC234", Name: "Rohan", Activated: true}
}

func payload() recording.Payload {
	return recording.Payload{Body: strings.NewReader("ID3..."), Name: "call.mp3"}
}

func TestRecordingService_Store(t *testing.T) {
	t.Run("employee uploads own recording", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := activeEmployee()
		id := emp.ID.String()

		deps.employees.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.store.EXPECT().
			Put(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r io.Reader, info storage.ObjectInfo) (string, int64, error) {
				b, _ := io.ReadAll(r)
				assert.Equal(t, "audio/mpeg", info.ContentType)
				assert.Equal(t, id, info.Metadata["employee_id"])
				return "file-1", int64(len(b)), nil
			})
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rec *recording.Recording) error {
				assert.Equal(t, emp.ID, rec.EmployeeID)
				assert.Equal(t, "ABC234", rec.EmployeeCode)
				assert.Equal(t, 42, rec.CallDuration)
				require.NotNil(t, rec.CallTimestamp)
				assert.Equal(t, int64(1700000000000), rec.CallTimestamp.UnixMilli())
				return nil
			})
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.employees.EXPECT().TouchLastSync(gomock.Any(), id, gomock.Any()).Return(nil)
		deps.sqlMock.ExpectCommit()

		resp, err := deps.service.Store(asEmployee(id), recording.UploadRequest{
			EmployeeID:   id,
			PhoneNumber:  "+919876543210",
			CallDuration: 42,
			Timestamp:    1700000000000,
		}, payload())

		require.NoError(t, err)
		assert.Equal(t, "file-1", resp.FileID)
		assert.Equal(t, "/files/file-1", resp.FileURL)
		assert.Equal(t, int64(6), resp.FileSize)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("employee id defaults to the caller", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := activeEmployee()
		id := emp.ID.String()

		deps.employees.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("file-2", int64(6), nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.employees.EXPECT().TouchLastSync(gomock.Any(), id, gomock.Any()).Return(nil)
		deps.sqlMock.ExpectCommit()

		resp, err := deps.service.Store(asEmployee(id), recording.UploadRequest{}, payload())
		require.NoError(t, err)
		assert.Equal(t, id, resp.EmployeeID)
	})

	t.Run("employee cannot upload for someone else", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Store(asEmployee(uuid.NewString()), recording.UploadRequest{EmployeeID: uuid.NewString()}, payload())
		assert.ErrorIs(t, err, autherrors.ErrForbidden)
	})

	t.Run("inactive employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := activeEmployee()
		emp.Activated = false
		deps.employees.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)

		_, err := deps.service.Store(asEmployee(emp.ID.String()), recording.UploadRequest{}, payload())
		assert.ErrorIs(t, err, autherrors.ErrNotActivated)
	})

	t.Run("admin must name the employee", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Store(asAdmin(), recording.UploadRequest{}, payload())
		assert.ErrorIs(t, err, recordingerrors.ErrEmployeeIDRequired)
	})

	t.Run("metadata failure removes the payload", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := activeEmployee()
		id := emp.ID.String()

		deps.employees.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("file-3", int64(6), nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		deps.sqlMock.ExpectRollback()
		deps.store.EXPECT().Delete(gomock.Any(), "file-3").Return(nil)

		_, err := deps.service.Store(asEmployee(id), recording.UploadRequest{}, payload())

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("cancelled client still removes the payload", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := activeEmployee()
		id := emp.ID.String()
		ctx, cancel := context.WithCancel(asEmployee(id))
		defer cancel()

		deps.employees.EXPECT().FindByID(gomock.Any(), id).Return(emp, nil)
		deps.store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, io.Reader, storage.ObjectInfo) (string, int64, error) {
				cancel()
				return "file-4", int64(6), nil
			})
		deps.store.EXPECT().Delete(gomock.Any(), "file-4").
			DoAndReturn(func(ctx context.Context, _ string) error {
				assert.NoError(t, ctx.Err())
				return nil
			})

		_, err := deps.service.Store(ctx, recording.UploadRequest{}, payload())

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("storage down", func(t *testing.T) {
		deps := setupServiceTest(t)
		emp := activeEmployee()
		deps.employees.EXPECT().FindByID(gomock.Any(), emp.ID.String()).Return(emp, nil)
		deps.store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("", int64(0), errors.New("mongo timeout"))

		_, err := deps.service.Store(asEmployee(emp.ID.String()), recording.UploadRequest{}, payload())
		assert.ErrorIs(t, err, recordingerrors.ErrStorageUnavailable)
	})
}

func ownedRecording(owner uuid.UUID) *recording.Recording {
	return &recording.Recording{
		ID:         uuid.New(),
		EmployeeID: owner,
		FileID:     "file-1",
		FileName:   "call.mp3",
	}
}

func TestRecordingService_Retrieve(t *testing.T) {
	t.Run("other employee is forbidden", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "file-1").Return(ownedRecording(uuid.New()), nil)

		_, err := deps.service.Retrieve(asEmployee(uuid.NewString()), "file-1")
		assert.ErrorIs(t, err, autherrors.ErrForbidden)
	})

	t.Run("owner streams with default content type", func(t *testing.T) {
		deps := setupServiceTest(t)
		owner := uuid.New()
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "file-1").Return(ownedRecording(owner), nil)
		deps.employees.EXPECT().FindByID(gomock.Any(), owner.String()).Return(&employee.Employee{ID: owner, Activated: true}, nil)
		deps.store.EXPECT().Open(gomock.Any(), "file-1").Return(&storage.Object{
			Body: io.NopCloser(strings.NewReader("audio")),
			Size: 5,
		}, nil)

		stream, err := deps.service.Retrieve(asEmployee(owner.String()), "file-1")

		require.NoError(t, err)
		defer stream.Body.Close()
		assert.Equal(t, "audio/mpeg", stream.ContentType)
		assert.Equal(t, int64(5), stream.Size)
	})

	t.Run("admin reads any recording", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "file-1").Return(ownedRecording(uuid.New()), nil)
		deps.store.EXPECT().Open(gomock.Any(), "file-1").Return(&storage.Object{
			Body:        io.NopCloser(strings.NewReader("audio")),
			Size:        5,
			ContentType: "audio/mp4",
		}, nil)

		stream, err := deps.service.Retrieve(asAdmin(), "file-1")

		require.NoError(t, err)
		assert.Equal(t, "audio/mp4", stream.ContentType)
	})

	t.Run("payload missing", func(t *testing.T) {
		deps := setupServiceTest(t)
		owner := uuid.New()
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "file-1").Return(ownedRecording(owner), nil)
		deps.employees.EXPECT().FindByID(gomock.Any(), owner.String()).Return(&employee.Employee{ID: owner, Activated: true}, nil)
		deps.store.EXPECT().Open(gomock.Any(), "file-1").Return(nil, storage.ErrNotFound)

		_, err := deps.service.Retrieve(asEmployee(owner.String()), "file-1")
		assert.ErrorIs(t, err, recordingerrors.ErrPayloadMissing)
	})

	t.Run("unknown handle", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "nope").Return(&recording.Recording{}, gorm.ErrRecordNotFound)

		_, err := deps.service.Retrieve(asAdmin(), "nope")
		assert.ErrorIs(t, err, recordingerrors.ErrRecordingNotFound)
	})

	t.Run("deleted owner", func(t *testing.T) {
		deps := setupServiceTest(t)
		owner := uuid.New()
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "file-1").Return(ownedRecording(owner), nil)
		deps.employees.EXPECT().FindByID(gomock.Any(), owner.String()).Return(&employee.Employee{}, gorm.ErrRecordNotFound)

		_, err := deps.service.Retrieve(asEmployee(owner.String()), "file-1")
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("soft-deleted owner", func(t *testing.T) {
		deps := setupServiceTest(t)
		owner := uuid.New()
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "file-1").Return(ownedRecording(owner), nil)
		deps.employees.EXPECT().FindByID(gomock.Any(), owner.String()).Return(&employee.Employee{
			ID:        owner,
			Activated: true,
			DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true},
		}, nil)

		_, err := deps.service.Retrieve(asEmployee(owner.String()), "file-1")
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("inactive owner", func(t *testing.T) {
		deps := setupServiceTest(t)
		owner := uuid.New()
		deps.repo.EXPECT().FindByFileID(gomock.Any(), "file-1").Return(ownedRecording(owner), nil)
		deps.employees.EXPECT().FindByID(gomock.Any(), owner.String()).Return(&employee.Employee{ID: owner}, nil)

		_, err := deps.service.Retrieve(asEmployee(owner.String()), "file-1")
		assert.ErrorIs(t, err, autherrors.ErrNotActivated)
	})
}

func TestRecordingService_List(t *testing.T) {
	deps := setupServiceTest(t)
	me := uuid.NewString()

	deps.employees.EXPECT().FindByID(gomock.Any(), me).Return(&employee.Employee{ID: uuid.MustParse(me), Activated: true}, nil)
	deps.repo.EXPECT().
		List(gomock.Any(), recording.ListQuery{EmployeeID: me, Page: 1, PageSize: 20}).
		Return([]recording.Recording{*ownedRecording(uuid.MustParse(me))}, int64(1), nil)

	// An employee asking for someone else's list gets their own.
	recs, total, err := deps.service.List(asEmployee(me), recording.ListQuery{EmployeeID: uuid.NewString()})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, recs, 1)
}

func TestRecordingService_List_InactiveCaller(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		deps := setupServiceTest(t)
		me := uuid.NewString()
		deps.employees.EXPECT().FindByID(gomock.Any(), me).Return(&employee.Employee{}, gorm.ErrRecordNotFound)

		_, _, err := deps.service.List(asEmployee(me), recording.ListQuery{})
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("not activated", func(t *testing.T) {
		deps := setupServiceTest(t)
		me := uuid.NewString()
		deps.employees.EXPECT().FindByID(gomock.Any(), me).Return(&employee.Employee{ID: uuid.MustParse(me)}, nil)

		_, _, err := deps.service.List(asEmployee(me), recording.ListQuery{})
		assert.ErrorIs(t, err, autherrors.ErrNotActivated)
	})
}

func TestRecordingService_Purge(t *testing.T) {
	t.Run("removes payload then row", func(t *testing.T) {
		deps := setupServiceTest(t)
		rec := ownedRecording(uuid.New())
		id := rec.ID.String()

		gomock.InOrder(
			deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(rec, nil),
			deps.repo.EXPECT().MarkPurgePending(gomock.Any(), id).Return(nil),
			deps.store.EXPECT().Delete(gomock.Any(), "file-1").Return(nil),
			deps.repo.EXPECT().Delete(gomock.Any(), id).Return(nil),
		)

		require.NoError(t, deps.service.Purge(asAdmin(), id))
		require.Len(t, deps.audit.entries, 1)
		assert.Equal(t, audit.ActionRecordingPurged, deps.audit.entries[0].Action)
	})

	t.Run("employees cannot purge", func(t *testing.T) {
		deps := setupServiceTest(t)
		rec := ownedRecording(uuid.New())
		deps.repo.EXPECT().FindByID(gomock.Any(), rec.ID.String()).Return(rec, nil)

		err := deps.service.Purge(asEmployee(rec.EmployeeID.String()), rec.ID.String())
		assert.ErrorIs(t, err, autherrors.ErrForbidden)
	})

	t.Run("payload delete fails, row is restored", func(t *testing.T) {
		deps := setupServiceTest(t)
		rec := ownedRecording(uuid.New())
		id := rec.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(rec, nil)
		deps.repo.EXPECT().MarkPurgePending(gomock.Any(), id).Return(nil)
		deps.store.EXPECT().Delete(gomock.Any(), "file-1").Return(errors.New("mongo timeout"))
		deps.repo.EXPECT().UnmarkPurgePending(gomock.Any(), id).Return(nil)

		err := deps.service.Purge(asAdmin(), id)
		assert.ErrorIs(t, err, recordingerrors.ErrStorageUnavailable)
		assert.Empty(t, deps.audit.entries)
	})

	t.Run("compensation fails", func(t *testing.T) {
		deps := setupServiceTest(t)
		rec := ownedRecording(uuid.New())
		id := rec.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(rec, nil)
		deps.repo.EXPECT().MarkPurgePending(gomock.Any(), id).Return(nil)
		deps.store.EXPECT().Delete(gomock.Any(), "file-1").Return(errors.New("mongo timeout"))
		deps.repo.EXPECT().UnmarkPurgePending(gomock.Any(), id).Return(errors.New("db down"))

		err := deps.service.Purge(asAdmin(), id)
		assert.ErrorIs(t, err, recordingerrors.ErrPurgeInconsistent)
	})

	t.Run("row delete failure is left to the sweeper", func(t *testing.T) {
		deps := setupServiceTest(t)
		rec := ownedRecording(uuid.New())
		id := rec.ID.String()

		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(rec, nil)
		deps.repo.EXPECT().MarkPurgePending(gomock.Any(), id).Return(nil)
		deps.store.EXPECT().Delete(gomock.Any(), "file-1").Return(storage.ErrNotFound)
		deps.repo.EXPECT().Delete(gomock.Any(), id).Return(errors.New("db down"))

		assert.NoError(t, deps.service.Purge(asAdmin(), id))
	})

	t.Run("invalid id", func(t *testing.T) {
		deps := setupServiceTest(t)
		assert.ErrorIs(t, deps.service.Purge(asAdmin(), "x"), recordingerrors.ErrInvalidRecordingID)
	})
}

func TestRecordingService_SweepPurges(t *testing.T) {
	deps := setupServiceTest(t)
	done := ownedRecording(uuid.New())
	stuck := ownedRecording(uuid.New())
	stuck.FileID = "file-2"

	deps.repo.EXPECT().
		ListPurgePending(gomock.Any(), gomock.Any(), 50).
		DoAndReturn(func(_ context.Context, staleBefore time.Time, _ int) ([]recording.Recording, error) {
			assert.True(t, staleBefore.Before(time.Now()))
			return []recording.Recording{*done, *stuck}, nil
		})
	deps.store.EXPECT().Delete(gomock.Any(), "file-1").Return(storage.ErrNotFound)
	deps.repo.EXPECT().Delete(gomock.Any(), done.ID.String()).Return(nil)
	deps.store.EXPECT().Delete(gomock.Any(), "file-2").Return(errors.New("mongo timeout"))

	n, err := deps.service.SweepPurges(context.Background(), 50)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
