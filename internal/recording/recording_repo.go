package recording

import (
	"context"
	"database/sql"
	"time"

	"callsync/internal/shared/dbutil"

	"gorm.io/gorm"
)

//go:generate mockgen -source=recording_repo.go -destination=mock/recording_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, rec *Recording) error
	FindByID(ctx context.Context, id string) (*Recording, error)
	// FindByFileID skips recordings that are being purged.
	FindByFileID(ctx context.Context, fileID string) (*Recording, error)
	List(ctx context.Context, q ListQuery) ([]Recording, int64, error)
	MarkPurgePending(ctx context.Context, id string) error
	UnmarkPurgePending(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListPurgePending(ctx context.Context, staleBefore time.Time, limit int) ([]Recording, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return dbutil.Conn(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, rec *Recording) error {
	return r.conn(ctx).Create(rec).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Recording, error) {
	var rec Recording
	err := r.conn(ctx).First(&rec, "id = ?", id).Error
	return &rec, err
}

func (r *repository) FindByFileID(ctx context.Context, fileID string) (*Recording, error) {
	var rec Recording
	err := r.conn(ctx).
		Where("file_id = ? AND purge_pending = ?", fileID, false).
		First(&rec).Error
	return &rec, err
}

func (r *repository) List(ctx context.Context, lq ListQuery) ([]Recording, int64, error) {
	q := r.conn(ctx).Model(&Recording{}).Where("purge_pending = ?", false)
	if lq.EmployeeID != "" {
		q = q.Where("employee_id = ?", lq.EmployeeID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []Recording
	err := q.Order("created_at DESC").
		Offset((lq.Page - 1) * lq.PageSize).
		Limit(lq.PageSize).
		Find(&recs).Error
	return recs, total, err
}

func (r *repository) MarkPurgePending(ctx context.Context, id string) error {
	res := r.conn(ctx).Model(&Recording{}).
		Where("id = ?", id).
		Update("purge_pending", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UnmarkPurgePending(ctx context.Context, id string) error {
	return r.conn(ctx).Model(&Recording{}).
		Where("id = ?", id).
		Update("purge_pending", false).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.conn(ctx).Delete(&Recording{}, "id = ?", id).Error
}

// ListPurgePending returns purges left half-done; staleBefore keeps the sweeper
// away from purges that are still running.
func (r *repository) ListPurgePending(ctx context.Context, staleBefore time.Time, limit int) ([]Recording, error) {
	var recs []Recording
	err := r.conn(ctx).
		Where("purge_pending = ? AND updated_at < ?", true, staleBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
