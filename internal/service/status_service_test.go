package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

type statusRepoStub struct {
	statuses map[string]*models.Status
	inUse    map[string]int
	err      error
}

func (s *statusRepoStub) List(ctx context.Context) ([]models.Status, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Status, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, *status)
	}
	return out, nil
}

func (s *statusRepoStub) FindByID(ctx context.Context, id string) (*models.Status, error) {
	if s.err != nil {
		return nil, s.err
	}
	status, ok := s.statuses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *status
	return &copied, nil
}

func (s *statusRepoStub) Create(ctx context.Context, status *models.Status) error {
	if s.err != nil {
		return s.err
	}
	if status.ID == "" {
		status.ID = "st-new"
	}
	if s.statuses == nil {
		s.statuses = make(map[string]*models.Status)
	}
	s.statuses[status.ID] = status
	return nil
}

func (s *statusRepoStub) Update(ctx context.Context, status *models.Status) error {
	if s.err != nil {
		return s.err
	}
	s.statuses[status.ID] = status
	return nil
}

func (s *statusRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.statuses, id)
	return s.err
}

func (s *statusRepoStub) CountOrders(ctx context.Context, statusID string) (int, error) {
	return s.inUse[statusID], s.err
}

// memoryCache is an in-memory CacheRepository used to observe cache
// reads, writes and invalidations without Redis.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	deletes int
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.deletes++
	return nil
}

func newTestCache(repo CacheRepository) *CacheService {
	return NewCacheService(repo, nil, time.Minute, nil, repo != nil)
}

func statusFixture() map[string]*models.Status {
	return map[string]*models.Status{
		"open":      {ID: "open", Name: "Open", Order: 1, Color: "#22c55e", IsInitial: true},
		"delivered": {ID: "delivered", Name: "Delivered", Order: 2, Color: "#64748b", IsFinal: true},
	}
}

func TestStatusListSortsByOrder(t *testing.T) {
	repo := &statusRepoStub{statuses: statusFixture()}
	svc := NewStatusService(repo, newTestCache(nil), time.Minute, nil, nil)

	statuses, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "open", statuses[0].ID)
	assert.Equal(t, "delivered", statuses[1].ID)
}

func TestStatusRegistryUsesCache(t *testing.T) {
	repo := &statusRepoStub{statuses: statusFixture()}
	cache := &memoryCache{}
	svc := NewStatusService(repo, newTestCache(cache), time.Minute, nil, nil)

	_, err := svc.Registry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from the cache even if the repo breaks.
	repo.err = assert.AnError
	reg, err := svc.Registry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestStatusCreateInvalidatesCache(t *testing.T) {
	repo := &statusRepoStub{statuses: statusFixture()}
	cache := &memoryCache{}
	svc := NewStatusService(repo, newTestCache(cache), time.Minute, nil, nil)

	_, err := svc.Registry(context.Background())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CreateStatusRequest{Name: "Repairing", Order: 3, Color: "#eab308"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes)
}

func TestStatusCreateRejectsSecondInitial(t *testing.T) {
	repo := &statusRepoStub{statuses: statusFixture()}
	svc := NewStatusService(repo, newTestCache(nil), time.Minute, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateStatusRequest{
		Name:      "Triage",
		Order:     0,
		Color:     "#f97316",
		IsInitial: true,
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStatusDeleteRefusesWhileInUse(t *testing.T) {
	repo := &statusRepoStub{statuses: statusFixture(), inUse: map[string]int{"open": 2}}
	svc := NewStatusService(repo, newTestCache(nil), time.Minute, nil, nil)

	err := svc.Delete(context.Background(), "open")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStatusDeleteRemovesUnusedStatus(t *testing.T) {
	repo := &statusRepoStub{statuses: statusFixture()}
	svc := NewStatusService(repo, newTestCache(nil), time.Minute, nil, nil)

	err := svc.Delete(context.Background(), "delivered")
	require.NoError(t, err)
	_, stillThere := repo.statuses["delivered"]
	assert.False(t, stillThere)
}
