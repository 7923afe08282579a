package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/personnel-api/internal/domain"
	"github.com/personnel-api/internal/dto"
	"github.com/personnel-api/internal/repository"
	"github.com/personnel-api/internal/storage"
)

// Report - результат отчёта по датам.
// Period равен nil, если одна из границ не задана: тогда в отчёт попадают все работники.
type Report struct {
	Period  *domain.Period
	Workers []domain.Worker
}

// Submitted показывает, был ли отчёт построен по интервалу
func (r *Report) Submitted() bool {
	return r.Period != nil
}

// WorkerService определяет интерфейс бизнес-логики для работников
type WorkerService interface {
	List(ctx context.Context, showFired bool) ([]domain.Worker, error)
	GetByID(ctx context.Context, id int64) (*domain.Worker, error)
	Create(ctx context.Context, req *dto.CreateWorkerRequest, picture *dto.Picture) (*domain.Worker, error)
	Update(ctx context.Context, id int64, req *dto.UpdateWorkerRequest, picture *dto.Picture) (*domain.Worker, error)
	Fire(ctx context.Context, id int64) error
	Transfer(ctx context.Context, id, subdivisionID int64) error
	Report(ctx context.Context, query *dto.ReportQuery) (*Report, error)
}

type workerService struct {
	workerRepo repository.WorkerRepository
	subRepo    repository.SubdivisionRepository
	pictures   storage.PictureStorage
	now        domain.Clock
}

// NewWorkerService создаёт новый экземпляр сервиса
func NewWorkerService(
	workerRepo repository.WorkerRepository,
	subRepo repository.SubdivisionRepository,
	pictures storage.PictureStorage,
	clock domain.Clock,
) WorkerService {
	if clock == nil {
		clock = time.Now
	}
	return &workerService{
		workerRepo: workerRepo,
		subRepo:    subRepo,
		pictures:   pictures,
		now:        clock,
	}
}

func (s *workerService) List(ctx context.Context, showFired bool) ([]domain.Worker, error) {
	return s.workerRepo.List(ctx, repository.WorkerFilter{IncludeFired: showFired})
}

func (s *workerService) GetByID(ctx context.Context, id int64) (*domain.Worker, error) {
	return s.workerRepo.GetByID(ctx, id)
}

func (s *workerService) Create(ctx context.Context, req *dto.CreateWorkerRequest, picture *dto.Picture) (*domain.Worker, error) {
	w := &domain.Worker{}
	if err := applyWorkerFields(w, &req.WorkerFields); err != nil {
		return nil, err
	}

	if w.SubdivisionID != nil {
		if err := s.checkAssignable(ctx, *w.SubdivisionID); err != nil {
			return nil, err
		}
	}

	if picture != nil {
		path, err := s.pictures.Save(ctx, picture.Name, picture.Content)
		if err != nil {
			return nil, err
		}
		w.PicturePath = &path
	}

	if err := s.workerRepo.Create(ctx, w); err != nil {
		return nil, err
	}
	return s.workerRepo.GetByID(ctx, w.ID)
}

func (s *workerService) Update(ctx context.Context, id int64, req *dto.UpdateWorkerRequest, picture *dto.Picture) (*domain.Worker, error) {
	if req.ID != nil && *req.ID != id {
		return nil, domain.ErrIDMismatch
	}

	// Текущая запись нужна для сохранения фотографии и дат увольнения/перевода
	w, err := s.workerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSubdivision := w.SubdivisionID

	if err := applyWorkerFields(w, &req.WorkerFields); err != nil {
		return nil, err
	}

	if w.SubdivisionID != nil && !sameID(previousSubdivision, w.SubdivisionID) {
		if err := s.checkAssignable(ctx, *w.SubdivisionID); err != nil {
			return nil, err
		}
	}

	switch {
	case req.RemovePicture:
		w.PicturePath = nil
	case picture != nil:
		path, err := s.pictures.Save(ctx, picture.Name, picture.Content)
		if err != nil {
			return nil, err
		}
		w.PicturePath = &path
	}

	if req.Version != nil {
		w.Version = *req.Version
	}

	if err := s.workerRepo.Update(ctx, w); err != nil {
		return nil, s.resolveUpdateError(ctx, id, err)
	}
	return s.workerRepo.GetByID(ctx, id)
}

// Fire увольняет работника текущей датой. Повторный вызов переустанавливает дату увольнения.
func (s *workerService) Fire(ctx context.Context, id int64) error {
	w, err := s.workerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	w.Fire(s.now())

	if err := s.workerRepo.Update(ctx, w); err != nil {
		return s.resolveUpdateError(ctx, id, err)
	}
	return nil
}

// Transfer переводит работника в действующее подразделение
func (s *workerService) Transfer(ctx context.Context, id, subdivisionID int64) error {
	w, err := s.workerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.checkAssignable(ctx, subdivisionID); err != nil {
		return err
	}

	w.Transfer(subdivisionID, s.now())

	if err := s.workerRepo.Update(ctx, w); err != nil {
		return s.resolveUpdateError(ctx, id, err)
	}
	return nil
}

func (s *workerService) Report(ctx context.Context, query *dto.ReportQuery) (*Report, error) {
	filter := repository.WorkerFilter{IncludeFired: true}

	if query.StartDate != nil && query.EndDate != nil {
		start, err := domain.ParseDate(*query.StartDate)
		if err != nil {
			return nil, domain.NewValidationError("start_date", "must be a date in YYYY-MM-DD format")
		}
		end, err := domain.ParseDate(*query.EndDate)
		if err != nil {
			return nil, domain.NewValidationError("end_date", "must be a date in YYYY-MM-DD format")
		}
		filter.Period = &domain.Period{Start: start, End: end}
	}

	workers, err := s.workerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Report{Period: filter.Period, Workers: workers}, nil
}

// checkAssignable проверяет, что подразделение существует и не ликвидировано
func (s *workerService) checkAssignable(ctx context.Context, subdivisionID int64) error {
	sub, err := s.subRepo.GetByID(ctx, subdivisionID)
	if err != nil {
		return err
	}
	if sub.IsLiquidated {
		return domain.ErrSubdivisionLiquidated
	}
	return nil
}

func (s *workerService) resolveUpdateError(ctx context.Context, id int64, err error) error {
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}
	exists, existsErr := s.workerRepo.Exists(ctx, id)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return domain.ErrWorkerNotFound
	}
	return err
}

func applyWorkerFields(w *domain.Worker, req *dto.WorkerFields) error {
	fields := map[string]string{}

	name := strings.TrimSpace(req.WorkerName)
	if name == "" {
		fields["worker_name"] = "required"
	}
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		fields["phone_number"] = "required"
	}

	sex := domain.Sex(req.Sex)
	if sex != domain.SexMale && sex != domain.SexFemale {
		fields["sex"] = "must be one of: male female"
	}

	birthDate, err := domain.ParseDate(req.BirthDate)
	if err != nil {
		fields["birth_date"] = "must be a date in YYYY-MM-DD format"
	}
	hireDate, err := domain.ParseDate(req.HireDate)
	if err != nil {
		fields["hire_date"] = "must be a date in YYYY-MM-DD format"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}

	w.WorkerName = name
	w.Sex = sex
	w.BirthDate = birthDate
	w.HireDate = hireDate
	w.SubdivisionID = req.SubdivisionID
	w.Role = optionalText(req.Role)
	w.PhoneNumber = phone
	w.Email = optionalText(req.Email)
	return nil
}

func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
