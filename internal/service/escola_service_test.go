package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

// memoryCacheRepo backs CacheService with a map and records traffic, so
// tests can assert that reads actually consult and populate the cache.
type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type countingEscolaRepo struct {
	escolas   map[string]*models.Escola
	listCalls int
	findCalls int
}

func (r *countingEscolaRepo) List(ctx context.Context, filter models.EscolaFilter) ([]models.Escola, int, error) {
	r.listCalls++
	out := make([]models.Escola, 0, len(r.escolas))
	for _, e := range r.escolas {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (r *countingEscolaRepo) FindByID(ctx context.Context, id string) (*models.Escola, error) {
	r.findCalls++
	found := *r.escolas[id]
	return &found, nil
}

func (r *countingEscolaRepo) Create(ctx context.Context, escola *models.Escola) error {
	escola.ID = "esc-new"
	r.escolas[escola.ID] = escola
	return nil
}

func (r *countingEscolaRepo) Update(ctx context.Context, escola *models.Escola) error {
	r.escolas[escola.ID] = escola
	return nil
}

func (r *countingEscolaRepo) Deactivate(ctx context.Context, id string) error {
	return nil
}

func escolaCacheFixtures() (*countingEscolaRepo, *memoryCacheRepo, *EscolaService) {
	repo := &countingEscolaRepo{escolas: map[string]*models.Escola{
		"esc-1": {ID: "esc-1", Name: "Escola Central", City: "São Paulo", Active: true},
	}}
	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	return repo, cacheRepo, NewEscolaService(repo, cacheSvc, nil, nil)
}

func TestEscolaListSecondReadServedFromCache(t *testing.T) {
	repo, cacheRepo, svc := escolaCacheFixtures()
	filter := models.EscolaFilter{Page: 1, PageSize: 20}

	escolas, pagination, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, escolas, 1)
	require.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, 1, cacheRepo.gets)
	assert.Equal(t, 1, cacheRepo.sets)

	escolas, pagination, err = svc.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, escolas, 1)
	require.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, repo.listCalls, "second read must not reach the repository")
	assert.Equal(t, 2, cacheRepo.gets)
	assert.Equal(t, 1, cacheRepo.sets)
}

func TestEscolaGetCachedAndMutationInvalidates(t *testing.T) {
	repo, cacheRepo, svc := escolaCacheFixtures()

	escola, err := svc.Get(context.Background(), "esc-1")
	require.NoError(t, err)
	assert.Equal(t, "Escola Central", escola.Name)

	_, err = svc.Get(context.Background(), "esc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findCalls, "second read must not reach the repository")

	_, err = svc.Update(context.Background(), "esc-1", EscolaRequest{Name: "Escola Renovada"})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.deletes, "ref:escola:*")

	escola, err = svc.Get(context.Background(), "esc-1")
	require.NoError(t, err)
	assert.Equal(t, "Escola Renovada", escola.Name)
	assert.Equal(t, 2, repo.findCalls, "stale entry must be evicted after a write")
}
