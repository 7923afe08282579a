package repository

import (
	"context"
	"errors"

	"github.com/personnel-api/internal/domain"
	"gorm.io/gorm"
)

// SubdivisionFilter задаёт условия выборки подразделений
type SubdivisionFilter struct {
	IncludeLiquidated bool
}

// SubdivisionRepository определяет интерфейс для работы с подразделениями
type SubdivisionRepository interface {
	Create(ctx context.Context, sub *domain.Subdivision) error
	GetByID(ctx context.Context, id int64) (*domain.Subdivision, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter SubdivisionFilter) ([]domain.Subdivision, error)
	Update(ctx context.Context, sub *domain.Subdivision) error
}

type subdivisionRepository struct {
	db *gorm.DB
}

// NewSubdivisionRepository создаёт новый экземпляр репозитория
func NewSubdivisionRepository(db *gorm.DB) SubdivisionRepository {
	return &subdivisionRepository{db: db}
}

func (r *subdivisionRepository) Create(ctx context.Context, sub *domain.Subdivision) error {
	sub.Version = 1
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subdivisionRepository) GetByID(ctx context.Context, id int64) (*domain.Subdivision, error) {
	var sub domain.Subdivision
	err := r.db.WithContext(ctx).First(&sub, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubdivisionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subdivisionRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Subdivision{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *subdivisionRepository) List(ctx context.Context, filter SubdivisionFilter) ([]domain.Subdivision, error) {
	query := r.db.WithContext(ctx).Order("id ASC")
	if !filter.IncludeLiquidated {
		query = query.Where("is_liquidated = ?", false)
	}

	var subs []domain.Subdivision
	err := query.Find(&subs).Error
	return subs, err
}

// Update заменяет изменяемые поля, если версия строки не изменилась с момента чтения
func (r *subdivisionRepository) Update(ctx context.Context, sub *domain.Subdivision) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Subdivision{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Updates(map[string]any{
			"full_name":     sub.FullName,
			"short_name":    sub.ShortName,
			"start_date":    sub.StartDate,
			"end_date":      sub.EndDate,
			"is_liquidated": sub.IsLiquidated,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	sub.Version++
	return nil
}
