package repository

import (
	"context"
	"errors"

	"github.com/personnel-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkerFilter задаёт условия выборки работников
type WorkerFilter struct {
	IncludeFired bool
	// Period оставляет работников, у которых дата приёма, увольнения
	// или перевода попадает в интервал
	Period *domain.Period
}

// WorkerRepository определяет интерфейс для работы с работниками
type WorkerRepository interface {
	Create(ctx context.Context, w *domain.Worker) error
	GetByID(ctx context.Context, id int64) (*domain.Worker, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error)
	Update(ctx context.Context, w *domain.Worker) error
}

type workerRepository struct {
	db *gorm.DB
}

// NewWorkerRepository создаёт новый экземпляр репозитория
func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) Create(ctx context.Context, w *domain.Worker) error {
	w.Version = 1
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(w).Error
}

func (r *workerRepository) GetByID(ctx context.Context, id int64) (*domain.Worker, error) {
	var w domain.Worker
	err := r.db.WithContext(ctx).Preload("Subdivision").First(&w, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWorkerNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *workerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Worker{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *workerRepository) List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error) {
	query := r.db.WithContext(ctx).Preload("Subdivision").Order("id ASC")

	if !filter.IncludeFired {
		query = query.Where("is_fired = ?", false)
	}

	if p := filter.Period; p != nil {
		query = query.Where(
			"(hire_date >= ? AND hire_date <= ?) OR (fire_date >= ? AND fire_date <= ?) OR (move_date >= ? AND move_date <= ?)",
			p.Start, p.End, p.Start, p.End, p.Start, p.End,
		)
	}

	var workers []domain.Worker
	err := query.Find(&workers).Error
	return workers, err
}

// Update заменяет изменяемые поля, если версия строки не изменилась с момента чтения
func (r *workerRepository) Update(ctx context.Context, w *domain.Worker) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Worker{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]any{
			"worker_name":    w.WorkerName,
			"sex":            w.Sex,
			"birth_date":     w.BirthDate,
			"hire_date":      w.HireDate,
			"fire_date":      w.FireDate,
			"move_date":      w.MoveDate,
			"subdivision_id": w.SubdivisionID,
			"role":           w.Role,
			"phone_number":   w.PhoneNumber,
			"email":          w.Email,
			"picture_path":   w.PicturePath,
			"is_fired":       w.IsFired,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	w.Version++
	return nil
}
