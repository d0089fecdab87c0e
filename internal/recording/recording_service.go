package recording

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callsync/internal/access"
	autherrors "callsync/internal/auth/errors"
	"callsync/internal/employee"
	employeeerrors "callsync/internal/employee/errors"
	recordingerrors "callsync/internal/recording/errors"
	"callsync/internal/shared/audit"
	"callsync/internal/shared/contextutil"
	"callsync/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// A purge younger than this may still be in flight.
	purgeGrace = time.Minute
)

type Service interface {
	Store(ctx context.Context, req UploadRequest, payload Payload) (RecordingResponse, error)
	Retrieve(ctx context.Context, fileID string) (*Stream, error)
	List(ctx context.Context, q ListQuery) ([]RecordingResponse, int64, error)
	Purge(ctx context.Context, id string) error
	SweepPurges(ctx context.Context, limit int) (int, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	store     storage.ObjectStore
	guard     access.Guard
	rdb       *redis.Client
	audit     audit.Logger
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	store storage.ObjectStore,
	guard access.Guard,
	rdb *redis.Client,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("recording.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("recording.service")
	}
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		store:     store,
		guard:     guard,
		rdb:       rdb,
		audit:     auditLogger,
		now:       time.Now,
		logger:    l,
	}
}

func (s *service) authorize(ctx context.Context, action access.Action, ownerID string) error {
	principal, _ := contextutil.GetPrincipal(ctx)
	decision := s.guard.Authorize(principal, action, access.Resource{
		Kind:    access.KindRecording,
		OwnerID: ownerID,
	})
	if err := decision.Err(); err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("recording access denied",
			zap.String("principal_id", principal.ID),
			zap.String("action", string(action)),
			zap.String("owner_id", ownerID),
			zap.String("reason", string(decision.Reason)),
		)
		return err
	}
	return nil
}

// activeCaller rejects employee principals whose record was deleted or
// deactivated after their token was issued. Admins pass through.
func (s *service) activeCaller(ctx context.Context) error {
	principal, _ := contextutil.GetPrincipal(ctx)
	if principal.IsAdmin() {
		return nil
	}
	emp, err := s.employees.FindByID(ctx, principal.ID)
	if err != nil {
		return employee.MapRepositoryError(err)
	}
	if emp.IsDeleted() {
		return employeeerrors.ErrEmployeeNotFound
	}
	if !emp.Activated {
		return autherrors.ErrNotActivated
	}
	return nil
}

// Store streams the payload to the object store first and only then writes
// the metadata row and bumps last_sync in one short transaction, so no row
// lock is held while bytes are moving.
func (s *service) Store(ctx context.Context, req UploadRequest, payload Payload) (RecordingResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if payload.Body == nil {
		return RecordingResponse{}, recordingerrors.ErrAudioRequired
	}

	principal, _ := contextutil.GetPrincipal(ctx)
	employeeID := req.EmployeeID
	if employeeID == "" && !principal.IsAdmin() {
		employeeID = principal.ID
	}
	if employeeID == "" {
		return RecordingResponse{}, recordingerrors.ErrEmployeeIDRequired
	}
	empUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return RecordingResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	if err := s.authorize(ctx, access.ActionUpload, employeeID); err != nil {
		return RecordingResponse{}, err
	}

	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return RecordingResponse{}, employee.MapRepositoryError(err)
	}
	if emp.IsDeleted() {
		return RecordingResponse{}, employeeerrors.ErrEmployeeNotFound
	}
	if !emp.Activated {
		return RecordingResponse{}, autherrors.ErrNotActivated
	}

	contentType := payload.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	handle, size, err := s.store.Put(ctx, payload.Body, storage.ObjectInfo{
		Name:        payload.Name,
		ContentType: contentType,
		Metadata:    map[string]string{"employee_id": employeeID},
	})
	if err != nil {
		log.Error("store recording payload failed", zap.String("employee_id", employeeID), zap.Error(err))
		return RecordingResponse{}, recordingerrors.ErrStorageUnavailable.WithCause(err)
	}

	now := s.now().UTC()
	rec := &Recording{
		ID:           uuid.New(),
		EmployeeID:   empUUID,
		EmployeeCode: emp.Code,
		FileID:       handle,
		FileName:     payload.Name,
		FileSize:     size,
		ContentType:  contentType,
		PhoneNumber:  req.PhoneNumber,
		CallDuration: req.CallDuration,
	}
	if req.Timestamp > 0 {
		ts := time.UnixMilli(req.Timestamp).UTC()
		rec.CallTimestamp = &ts
	}

	if err := s.persist(ctx, rec, now); err != nil {
		log.Error("persist recording failed, removing payload",
			zap.String("employee_id", employeeID),
			zap.String("file_id", handle),
			zap.Error(err),
		)
		if delErr := s.store.Delete(context.WithoutCancel(ctx), handle); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			log.Error("remove orphaned payload failed", zap.String("file_id", handle), zap.Error(delErr))
		}
		return RecordingResponse{}, mapRepositoryError(err)
	}

	employee.InvalidateStats(ctx, s.rdb, log)

	log.Info("recording stored",
		zap.String("recording_id", rec.ID.String()),
		zap.String("employee_id", employeeID),
		zap.Int64("size", size),
	)
	return ToResponse(*rec), nil
}

func (s *service) persist(ctx context.Context, rec *Recording, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, rec); err != nil {
		return err
	}
	if err := s.employees.WithTx(tx).TouchLastSync(ctx, rec.EmployeeID.String(), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) Retrieve(ctx context.Context, fileID string) (*Stream, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	rec, err := s.repo.FindByFileID(ctx, fileID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	if err := s.authorize(ctx, access.ActionRead, rec.EmployeeID.String()); err != nil {
		return nil, err
	}
	if err := s.activeCaller(ctx); err != nil {
		return nil, err
	}

	obj, err := s.store.Open(ctx, rec.FileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidHandle) {
			log.Warn("recording payload missing", zap.String("file_id", fileID))
			return nil, recordingerrors.ErrPayloadMissing
		}
		log.Error("open recording payload failed", zap.String("file_id", fileID), zap.Error(err))
		return nil, recordingerrors.ErrStorageUnavailable.WithCause(err)
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = rec.ContentType
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Stream{
		Body:        obj.Body,
		Size:        obj.Size,
		Name:        rec.FileName,
		ContentType: contentType,
	}, nil
}

func (s *service) List(ctx context.Context, q ListQuery) ([]RecordingResponse, int64, error) {
	principal, _ := contextutil.GetPrincipal(ctx)
	if !principal.IsAdmin() {
		q.EmployeeID = principal.ID
	}
	if q.EmployeeID != "" {
		if _, err := uuid.Parse(q.EmployeeID); err != nil {
			return nil, 0, employeeerrors.ErrInvalidEmployeeID
		}
	}

	if err := s.authorize(ctx, access.ActionList, q.EmployeeID); err != nil {
		return nil, 0, err
	}
	if err := s.activeCaller(ctx); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	recs, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("list recordings failed", zap.Error(err))
		return nil, 0, mapRepositoryError(err)
	}

	return toListResponse(recs), total, nil
}

// Purge removes payload and metadata together. The row is hidden first,
// then the payload goes, then the row. A failed payload delete unhides the
// row again; a failed row delete is left to SweepPurges.
func (s *service) Purge(ctx context.Context, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)

	if _, err := uuid.Parse(id); err != nil {
		return recordingerrors.ErrInvalidRecordingID
	}

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	if err := s.authorize(ctx, access.ActionPurge, rec.EmployeeID.String()); err != nil {
		return err
	}

	if err := s.repo.MarkPurgePending(ctx, id); err != nil {
		log.Error("mark recording for purge failed", zap.String("recording_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := s.store.Delete(ctx, rec.FileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error("delete recording payload failed", zap.String("recording_id", id), zap.Error(err))

		if unmarkErr := s.repo.UnmarkPurgePending(ctx, id); unmarkErr != nil {
			log.Error("restore recording after failed purge failed",
				zap.String("recording_id", id),
				zap.Error(unmarkErr),
			)
			return recordingerrors.ErrPurgeInconsistent.WithCause(errors.Join(err, unmarkErr))
		}
		return recordingerrors.ErrStorageUnavailable.WithCause(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Warn("delete recording row failed, left for sweeper",
			zap.String("recording_id", id),
			zap.Error(err),
		)
	}

	employee.InvalidateStats(ctx, s.rdb, log)
	s.audit.Log(ctx, audit.Entry{
		Action:  audit.ActionRecordingPurged,
		Message: "recording purged",
		Meta: map[string]any{
			"recording_id": id,
			"employee_id":  rec.EmployeeID.String(),
			"principal_id": contextutil.ExtractMetadata(ctx).PrincipalID,
		},
	})

	log.Info("recording purged", zap.String("recording_id", id))
	return nil
}

// SweepPurges finishes purges whose row delete failed. It returns how many
// were completed.
func (s *service) SweepPurges(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	recs, err := s.repo.ListPurgePending(ctx, s.now().Add(-purgeGrace), limit)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, rec := range recs {
		if err := s.store.Delete(ctx, rec.FileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("sweep: delete payload failed", zap.String("recording_id", rec.ID.String()), zap.Error(err))
			continue
		}
		if err := s.repo.Delete(ctx, rec.ID.String()); err != nil {
			s.logger.Warn("sweep: delete row failed", zap.String("recording_id", rec.ID.String()), zap.Error(err))
			continue
		}
		done++
	}

	if done > 0 {
		s.logger.Info("sweep: purges completed", zap.Int("count", done))
	}
	return done, nil
}
