package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"callsync/internal/codegen"
	employeeerrors "callsync/internal/employee/errors"
	"callsync/internal/events"
	"callsync/internal/messaging/kafka"
	"callsync/internal/shared/contextutil"
	"callsync/internal/shared/dbutil"
	"callsync/internal/shared/phone"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	StatsCacheKey = "employees:stats"
	statsCacheTTL = 5 * time.Minute

	defaultPageSize = 10
	maxPageSize     = 100
)

// InvalidateStats drops the cached dashboard counters. Failures are logged
// only; the cache expires on its own.
func InvalidateStats(ctx context.Context, rdb *redis.Client, logger *zap.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, StatsCacheKey).Err(); err != nil {
		logger.Error("failed to invalidate employee stats cache",
			zap.Error(err),
			zap.String("key", StatsCacheKey),
		)
	}
}

type Options struct {
	PhoneRegion    string
	Codes          codegen.Generator
	MaxCodeTries   int
	LifecycleTopic string
}

type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, q ListQuery) ([]EmployeeResponse, int64, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (StatsResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	opts   Options
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	if opts.Codes == nil {
		opts.Codes = codegen.New()
	}
	if opts.MaxCodeTries <= 0 {
		opts.MaxCodeTries = codegen.DefaultMaxAttempts
	}
	if opts.LifecycleTopic == "" {
		opts.LifecycleTopic = events.EmployeeLifecycleTopic
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = "IN"
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		rdb:    rdb,
		opts:   opts,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("department", req.Department),
	)

	emp, err := s.buildEmployee(req)
	if err != nil {
		log.Warn("create employee invalid input", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := s.ensureIdentityFree(ctx, emp); err != nil {
		return EmployeeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	_, err = codegen.Assign(s.opts.Codes, "", s.opts.MaxCodeTries, func(code string) error {
		emp.ID = uuid.New()
		emp.Code = code
		err := qtx.Create(ctx, emp)
		if dbutil.IsUniqueViolation(err, ConstraintCode) {
			log.Debug("employee code collision, retrying", zap.String("request_id", rid))
			return codegen.ErrCollision
		}
		return err
	})
	if err != nil {
		log.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil {
		event, err := kafka.NewOutboxEvent(rid, "employee", emp.ID.String(), events.EventEmployeeCreated, s.opts.LifecycleTopic,
			events.EmployeeCreatedEvent{
				EventType:   events.EventEmployeeCreated,
				RequestID:   rid,
				EmployeeID:  emp.ID.String(),
				Code:        emp.Code,
				Name:        emp.Name,
				PhoneNumber: deref(emp.PhoneNumber),
				Email:       deref(emp.Email),
				OccurredAt:  time.Now().UTC(),
			})
		if err != nil {
			log.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}

		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			log.Error("create employee outbox persist failed",
				zap.String("employee_id", emp.ID.String()),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	InvalidateStats(ctx, s.rdb, log)

	log.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", emp.ID.String()),
	)

	return ToResponse(*emp), nil
}

func (s *service) buildEmployee(req CreateEmployeeRequest) (*Employee, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(firstName + " " + lastName)
	}
	if name == "" {
		return nil, employeeerrors.ErrNameRequired
	}

	emp := &Employee{
		Name:               name,
		FirstName:          firstName,
		LastName:           lastName,
		Department:         strings.TrimSpace(req.Department),
		Designation:        strings.TrimSpace(req.Designation),
		EmployeeInternalID: strings.TrimSpace(req.EmployeeInternalID),
	}

	if raw := strings.TrimSpace(req.PhoneNumber); raw != "" {
		phoneNumber, err := phone.Normalize(raw, s.opts.PhoneRegion)
		if err != nil {
			return nil, employeeerrors.ErrInvalidPhone
		}
		emp.PhoneNumber = &phoneNumber
	}

	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		emp.Email = &email
	}

	if req.JoiningDate != "" {
		d, err := time.Parse("2006-01-02", req.JoiningDate)
		if err != nil {
			return nil, employeeerrors.ErrInvalidJoiningDate
		}
		emp.JoiningDate = &d
	}

	return emp, nil
}

// ensureIdentityFree gives a precise error for the common case; the unique
// indexes stay authoritative under concurrent creation.
func (s *service) ensureIdentityFree(ctx context.Context, emp *Employee) error {
	if emp.PhoneNumber == nil && emp.Email == nil {
		return nil
	}
	existing, err := s.repo.FindByPhoneOrEmail(ctx, deref(emp.PhoneNumber), deref(emp.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return mapRepositoryError(err)
	}

	if existing.PhoneNumber != nil && emp.PhoneNumber != nil && *existing.PhoneNumber == *emp.PhoneNumber {
		return employeeerrors.ErrDuplicatePhone
	}
	return employeeerrors.ErrDuplicateEmail
}

func (s *service) GetAll(ctx context.Context, q ListQuery) ([]EmployeeResponse, int64, error) {
	s.logger.Debug("get all employees requested", zap.String("q", q.Q), zap.String("status", q.Status))

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	emps, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, 0, mapRepositoryError(err)
	}

	return toListResponse(emps), total, nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("get employee by id failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return ToResponse(*emp), nil
}

// Delete only sets the soft-delete marker; the code stays reserved and
// recordings keep their owner.
func (s *service) Delete(ctx context.Context, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).SoftDelete(ctx, id); err != nil {
		log.Warn("delete employee failed", zap.String("employee_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("delete employee commit failed", zap.Error(err))
		return err
	}

	InvalidateStats(ctx, s.rdb, log)

	log.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) Stats(ctx context.Context) (StatsResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, StatsCacheKey).Result(); err == nil {
			var resp StatsResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(StatsCacheKey, func() (interface{}, error) {
		stats, err := s.repo.Stats(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		if s.rdb != nil {
			if b, err := json.Marshal(stats); err == nil {
				if err := s.rdb.Set(ctx, StatsCacheKey, b, statsCacheTTL).Err(); err != nil {
					s.logger.Warn("cache employee stats failed", zap.Error(err))
				}
			}
		}

		return stats, nil
	})
	if err != nil {
		s.logger.Error("employee stats failed", zap.Error(err))
		return StatsResponse{}, err
	}

	return v.(StatsResponse), nil
}
