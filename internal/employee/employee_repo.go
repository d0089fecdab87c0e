package employee

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"callsync/internal/shared/dbutil"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPreconditionFailed means a conditional update matched no row: the
// employee is missing or no longer in the state the guard requires.
var ErrPreconditionFailed = errors.New("employee: precondition failed")

// Guard narrows a conditional update to employees in a given lifecycle state.
// Nil fields are not checked.
type Guard struct {
	DocumentsUploaded     *bool
	RegistrationCompleted *bool
	Activated             *bool
	CredentialAbsent      bool
}

func Is(v bool) *bool { return &v }

func (g Guard) apply(db *gorm.DB) *gorm.DB {
	if g.DocumentsUploaded != nil {
		db = db.Where("documents_uploaded = ?", *g.DocumentsUploaded)
	}
	if g.RegistrationCompleted != nil {
		db = db.Where("registration_completed = ?", *g.RegistrationCompleted)
	}
	if g.Activated != nil {
		db = db.Where("activated = ?", *g.Activated)
	}
	if g.CredentialAbsent {
		db = db.Where("password_hash IS NULL")
	}
	return db
}

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, emp *Employee) error
	// FindByID sees soft-deleted employees; every other finder does not.
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByCode(ctx context.Context, code string) (*Employee, error)
	FindByTempCode(ctx context.Context, tempCode string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	FindByPhoneOrEmail(ctx context.Context, phone, email string) (*Employee, error)
	List(ctx context.Context, q ListQuery) ([]Employee, int64, error)
	UpdateIf(ctx context.Context, id string, guard Guard, changes map[string]any) (*Employee, error)
	ConsumeTempCode(ctx context.Context, tempCode string, now time.Time) (*Employee, error)
	ClearTempCode(ctx context.Context, id string) error
	TouchLastSync(ctx context.Context, id string, at time.Time) error
	SoftDelete(ctx context.Context, id string) error
	Stats(ctx context.Context) (StatsResponse, error)
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

// Create inserts under the unique indexes. Inside a transaction the insert is
// wrapped in a savepoint so a lost code race does not poison the transaction
// and the caller can retry with a fresh code.
func (r *repository) Create(ctx context.Context, emp *Employee) error {
	if r.tx == nil {
		return r.conn(ctx).Create(emp).Error
	}

	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT employee_insert"); err != nil {
		return err
	}
	if err := r.conn(ctx).Create(emp).Error; err != nil {
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT employee_insert"); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	_, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT employee_insert")
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee
	err := r.conn(ctx).Unscoped().First(&emp, "id = ?", id).Error
	return &emp, err
}

func (r *repository) FindByCode(ctx context.Context, code string) (*Employee, error) {
	var emp Employee
	err := r.conn(ctx).First(&emp, "code = ?", code).Error
	return &emp, err
}

func (r *repository) FindByTempCode(ctx context.Context, tempCode string) (*Employee, error) {
	var emp Employee
	err := r.conn(ctx).First(&emp, "temp_code = ?", tempCode).Error
	return &emp, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	var emp Employee
	err := r.conn(ctx).First(&emp, "LOWER(email) = LOWER(?)", email).Error
	return &emp, err
}

func (r *repository) FindByPhoneOrEmail(ctx context.Context, phone, email string) (*Employee, error) {
	if phone == "" && email == "" {
		return nil, gorm.ErrRecordNotFound
	}

	q := r.conn(ctx).Model(&Employee{})
	switch {
	case phone != "" && email != "":
		q = q.Where("phone_number = ? OR LOWER(email) = LOWER(?)", phone, email)
	case phone != "":
		q = q.Where("phone_number = ?", phone)
	default:
		q = q.Where("LOWER(email) = LOWER(?)", email)
	}

	var emp Employee
	err := q.First(&emp).Error
	return &emp, err
}

func (r *repository) List(ctx context.Context, lq ListQuery) ([]Employee, int64, error) {
	q := r.conn(ctx).Model(&Employee{})

	if term := strings.TrimSpace(lq.Q); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(department) LIKE ? OR phone_number LIKE ?",
			like, like, like, like,
		)
	}
	switch lq.Status {
	case "active":
		q = q.Where("activated = ?", true)
	case "inactive":
		q = q.Where("activated = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var emps []Employee
	err := q.Order("created_at DESC").
		Offset((lq.Page - 1) * lq.PageSize).
		Limit(lq.PageSize).
		Find(&emps).Error
	return emps, total, err
}

// UpdateIf applies changes in one UPDATE ... WHERE <guard> RETURNING * so the
// state check and the write cannot interleave with another request.
func (r *repository) UpdateIf(ctx context.Context, id string, guard Guard, changes map[string]any) (*Employee, error) {
	var rows []Employee
	q := r.conn(ctx).Model(&rows).Clauses(clause.Returning{}).Where("id = ?", id)
	res := guard.apply(q).Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return nil, ErrPreconditionFailed
	}
	return &rows[0], nil
}

// ConsumeTempCode clears an unexpired temp code of an activated employee in a
// single conditional write. A second caller with the same code matches nothing.
func (r *repository) ConsumeTempCode(ctx context.Context, tempCode string, now time.Time) (*Employee, error) {
	var rows []Employee
	res := r.conn(ctx).Model(&rows).Clauses(clause.Returning{}).
		Where("temp_code = ? AND temp_code_expires_at > ? AND activated = ?", tempCode, now, true).
		Updates(map[string]any{"temp_code": nil, "temp_code_expires_at": nil})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return nil, ErrPreconditionFailed
	}
	return &rows[0], nil
}

func (r *repository) ClearTempCode(ctx context.Context, id string) error {
	return r.conn(ctx).Model(&Employee{}).
		Where("id = ? AND temp_code IS NOT NULL", id).
		Updates(map[string]any{"temp_code": nil, "temp_code_expires_at": nil}).Error
}

func (r *repository) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	return r.conn(ctx).Unscoped().Model(&Employee{}).
		Where("id = ?", id).
		Update("last_sync_at", at).Error
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	res := r.conn(ctx).Delete(&Employee{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Stats(ctx context.Context) (StatsResponse, error) {
	var stats StatsResponse
	err := r.conn(ctx).Model(&Employee{}).
		Select(
			"COUNT(*) AS total_employees, " +
				"COUNT(*) FILTER (WHERE activated) AS active_employees, " +
				"COUNT(*) FILTER (WHERE documents_uploaded AND NOT registration_completed) AS pending_registration",
		).
		Scan(&stats).Error
	if err != nil {
		return StatsResponse{}, err
	}

	err = r.conn(ctx).Table("recordings").
		Where("purge_pending = ?", false).
		Count(&stats.TotalRecordings).Error
	return stats, err
}
