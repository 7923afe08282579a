package service_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/personnel-api/internal/domain"
	"github.com/personnel-api/internal/repository"
	"github.com/stretchr/testify/require"
)

type fakeSubdivisionRepo struct {
	mu    sync.Mutex
	items map[int64]domain.Subdivision
	next  int64
}

func newFakeSubdivisionRepo() *fakeSubdivisionRepo {
	return &fakeSubdivisionRepo{items: make(map[int64]domain.Subdivision), next: 1}
}

func (m *fakeSubdivisionRepo) Create(ctx context.Context, sub *domain.Subdivision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = m.next
	sub.Version = 1
	m.next++
	m.items[sub.ID] = *sub
	return nil
}

func (m *fakeSubdivisionRepo) GetByID(ctx context.Context, id int64) (*domain.Subdivision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok {
		return nil, domain.ErrSubdivisionNotFound
	}
	return &sub, nil
}

func (m *fakeSubdivisionRepo) Exists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok, nil
}

func (m *fakeSubdivisionRepo) List(ctx context.Context, filter repository.SubdivisionFilter) ([]domain.Subdivision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Subdivision
	for _, sub := range m.items {
		if !filter.IncludeLiquidated && sub.IsLiquidated {
			continue
		}
		result = append(result, sub)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *fakeSubdivisionRepo) Update(ctx context.Context, sub *domain.Subdivision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[sub.ID]
	if !ok || stored.Version != sub.Version {
		return domain.ErrConflict
	}
	sub.Version++
	m.items[sub.ID] = *sub
	return nil
}

// remove имитирует удаление строки другим запросом
func (m *fakeSubdivisionRepo) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
}

type fakeWorkerRepo struct {
	mu    sync.Mutex
	items map[int64]domain.Worker
	next  int64
	subs  *fakeSubdivisionRepo
}

func newFakeWorkerRepo(subs *fakeSubdivisionRepo) *fakeWorkerRepo {
	return &fakeWorkerRepo{items: make(map[int64]domain.Worker), next: 1, subs: subs}
}

func (m *fakeWorkerRepo) Create(ctx context.Context, w *domain.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = m.next
	w.Version = 1
	m.next++
	stored := *w
	stored.Subdivision = nil
	m.items[w.ID] = stored
	return nil
}

func (m *fakeWorkerRepo) GetByID(ctx context.Context, id int64) (*domain.Worker, error) {
	m.mu.Lock()
	w, ok := m.items[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrWorkerNotFound
	}
	m.resolve(ctx, &w)
	return &w, nil
}

func (m *fakeWorkerRepo) Exists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok, nil
}

func (m *fakeWorkerRepo) List(ctx context.Context, filter repository.WorkerFilter) ([]domain.Worker, error) {
	m.mu.Lock()
	var result []domain.Worker
	for _, w := range m.items {
		if !filter.IncludeFired && w.IsFired {
			continue
		}
		if p := filter.Period; p != nil {
			hire := w.HireDate
			if !p.Contains(&hire) && !p.Contains(w.FireDate) && !p.Contains(w.MoveDate) {
				continue
			}
		}
		result = append(result, w)
	}
	m.mu.Unlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	for i := range result {
		m.resolve(ctx, &result[i])
	}
	return result, nil
}

func (m *fakeWorkerRepo) Update(ctx context.Context, w *domain.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[w.ID]
	if !ok || stored.Version != w.Version {
		return domain.ErrConflict
	}
	w.Version++
	next := *w
	next.Subdivision = nil
	m.items[w.ID] = next
	return nil
}

func (m *fakeWorkerRepo) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
}

func (m *fakeWorkerRepo) resolve(ctx context.Context, w *domain.Worker) {
	if w.SubdivisionID == nil || m.subs == nil {
		return
	}
	if sub, err := m.subs.GetByID(ctx, *w.SubdivisionID); err == nil {
		w.Subdivision = sub
	}
}

type fakePictureStorage struct {
	saved []string
}

func (s *fakePictureStorage) Save(ctx context.Context, originalName string, content io.Reader) (string, error) {
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	if originalName == "bad.txt" {
		return "", domain.ErrInvalidPicture
	}
	path := "images/" + originalName
	s.saved = append(s.saved, path)
	return path, nil
}

func fixedClock(t *testing.T, day string) domain.Clock {
	t.Helper()
	d, err := domain.ParseDate(day)
	require.NoError(t, err)
	now := d.Add(10 * time.Hour)
	return func() time.Time { return now }
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func ptr[T any](v T) *T {
	return &v
}
