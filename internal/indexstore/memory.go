package indexstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"slideforge-backend/internal/models"
)

// MemStore is the in-memory Store used by tests. Rows are stored by
// value so a snapshot taken before an operation can be compared
// byte-for-byte afterwards. FailNextAppend and FailNextUpdate inject
// one-shot faults.
type MemStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.ProjectIndex

	FailNextAppend error
	FailNextUpdate error
}

func NewMemStore() *MemStore {
	return &MemStore{rows: map[uuid.UUID]models.ProjectIndex{}}
}

func (s *MemStore) AppendRow(ctx context.Context, row *models.ProjectIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextAppend; err != nil {
		s.FailNextAppend = nil
		return err
	}
	if _, exists := s.rows[row.ProjectID]; exists {
		return fmt.Errorf("append index row %s: duplicate key", row.ProjectID)
	}
	s.rows[row.ProjectID] = *row
	return nil
}

func (s *MemStore) FindRowByKey(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[id]
	return ok, nil
}

func (s *MemStore) ReadRow(ctx context.Context, id uuid.UUID) (*models.ProjectIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("index row %s: %w", id, ErrRowNotFound)
	}
	return &row, nil
}

func (s *MemStore) UpdateRow(ctx context.Context, row *models.ProjectIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextUpdate; err != nil {
		s.FailNextUpdate = nil
		return err
	}
	if _, ok := s.rows[row.ProjectID]; !ok {
		return fmt.Errorf("index row %s: %w", row.ProjectID, ErrRowNotFound)
	}
	s.rows[row.ProjectID] = *row
	return nil
}

func (s *MemStore) DeleteRow(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *MemStore) ListRows(ctx context.Context) ([]models.ProjectIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.ProjectIndex, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LastModified.After(rows[j].LastModified)
	})
	return rows, nil
}

// Row is a test accessor returning a copy of the stored row.
func (s *MemStore) Row(id uuid.UUID) (models.ProjectIndex, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	return row, ok
}
