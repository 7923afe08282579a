package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/personnel-api/internal/domain"
	"github.com/personnel-api/internal/dto"
	"github.com/personnel-api/internal/repository"
)

// SubdivisionService определяет интерфейс бизнес-логики для подразделений
type SubdivisionService interface {
	List(ctx context.Context, showLiquidated bool) ([]domain.Subdivision, error)
	GetByID(ctx context.Context, id int64) (*domain.Subdivision, error)
	Create(ctx context.Context, req *dto.CreateSubdivisionRequest) (*domain.Subdivision, error)
	Update(ctx context.Context, id int64, req *dto.UpdateSubdivisionRequest) (*domain.Subdivision, error)
	Liquidate(ctx context.Context, id int64) error
}

type subdivisionService struct {
	subRepo repository.SubdivisionRepository
	now     domain.Clock
}

// NewSubdivisionService создаёт новый экземпляр сервиса
func NewSubdivisionService(subRepo repository.SubdivisionRepository, clock domain.Clock) SubdivisionService {
	if clock == nil {
		clock = time.Now
	}
	return &subdivisionService{
		subRepo: subRepo,
		now:     clock,
	}
}

func (s *subdivisionService) List(ctx context.Context, showLiquidated bool) ([]domain.Subdivision, error) {
	return s.subRepo.List(ctx, repository.SubdivisionFilter{IncludeLiquidated: showLiquidated})
}

func (s *subdivisionService) GetByID(ctx context.Context, id int64) (*domain.Subdivision, error) {
	return s.subRepo.GetByID(ctx, id)
}

func (s *subdivisionService) Create(ctx context.Context, req *dto.CreateSubdivisionRequest) (*domain.Subdivision, error) {
	sub := &domain.Subdivision{}
	if err := applySubdivisionFields(sub, req); err != nil {
		return nil, err
	}

	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subdivisionService) Update(ctx context.Context, id int64, req *dto.UpdateSubdivisionRequest) (*domain.Subdivision, error) {
	if req.ID != nil && *req.ID != id {
		return nil, domain.ErrIDMismatch
	}

	sub, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Дата и признак ликвидации меняются только через Liquidate
	if err := applySubdivisionFields(sub, &req.CreateSubdivisionRequest); err != nil {
		return nil, err
	}
	if req.Version != nil {
		sub.Version = *req.Version
	}

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, s.resolveUpdateError(ctx, id, err)
	}
	return sub, nil
}

// Liquidate помечает подразделение ликвидированным текущей датой.
// Повторный вызов переустанавливает дату ликвидации. Работники подразделения не затрагиваются.
func (s *subdivisionService) Liquidate(ctx context.Context, id int64) error {
	sub, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	sub.Liquidate(s.now())

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return s.resolveUpdateError(ctx, id, err)
	}
	return nil
}

// resolveUpdateError отличает конфликт версий от удалённой строки
func (s *subdivisionService) resolveUpdateError(ctx context.Context, id int64, err error) error {
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}
	exists, existsErr := s.subRepo.Exists(ctx, id)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return domain.ErrSubdivisionNotFound
	}
	return err
}

func applySubdivisionFields(sub *domain.Subdivision, req *dto.CreateSubdivisionRequest) error {
	fields := map[string]string{}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fields["full_name"] = "required"
	}
	shortName := strings.TrimSpace(req.ShortName)
	if shortName == "" {
		fields["short_name"] = "required"
	}
	startDate, err := domain.ParseDate(req.StartDate)
	if err != nil {
		fields["start_date"] = "must be a date in YYYY-MM-DD format"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}

	sub.FullName = fullName
	sub.ShortName = shortName
	sub.StartDate = startDate
	return nil
}
