package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type memCache struct {
	values map[string][]byte
	getErr error
}

func newMemCache() *memCache {
	return &memCache{values: map[string][]byte{}}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.values {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.values, key)
		}
	}
	return nil
}

type memColleges struct {
	colleges  []models.College
	regions   []models.Region
	listCalls int
}

func (m *memColleges) ListColleges(ctx context.Context, regionID string) ([]models.College, error) {
	m.listCalls++
	var out []models.College
	for _, c := range m.colleges {
		if regionID == "" || c.RegionID == regionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memColleges) CreateCollege(ctx context.Context, college *models.College) error {
	for _, c := range m.colleges {
		if c.Code == college.Code {
			return &repository.DuplicateError{Constraint: "colleges_code_key"}
		}
	}
	college.ID = "col-new"
	m.colleges = append(m.colleges, *college)
	return nil
}

func (m *memColleges) ListRegions(ctx context.Context) ([]models.Region, error) {
	return m.regions, nil
}

func (m *memColleges) RegionExists(ctx context.Context, id string) (bool, error) {
	for _, r := range m.regions {
		if r.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memColleges) CreateRegion(ctx context.Context, region *models.Region) error {
	for _, r := range m.regions {
		if r.Name == region.Name {
			return repository.ErrDuplicate
		}
	}
	region.ID = "reg-new"
	m.regions = append(m.regions, *region)
	return nil
}

func newCollegeFixture() (*CollegeService, *memColleges, *memCache) {
	store := &memColleges{
		colleges: []models.College{{ID: "col-a", Name: "Alpha", Code: "ALP", RegionID: "reg-1"}},
		regions:  []models.Region{{ID: "reg-1", Name: "West"}},
	}
	cache := newMemCache()
	cacheSvc := NewCacheService(cache, NewMetricsService(), time.Minute, zap.NewNop(), true)
	return NewCollegeService(store, cacheSvc, nil, zap.NewNop()), store, cache
}

func TestCollegeListIsCachedAndInvalidated(t *testing.T) {
	svc, store, _ := newCollegeFixture()
	ctx := context.Background()

	first, hit, err := svc.ListColleges(ctx, "")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first, 1)

	second, hit, err := svc.ListColleges(ctx, "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listCalls)

	created, err := svc.CreateCollege(ctx, models.CreateCollegeRequest{Name: "Beta", Code: "bet", RegionID: "reg-1"}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "BET", created.Code)

	third, hit, err := svc.ListColleges(ctx, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, store.listCalls)
}

func TestCollegeCreateRules(t *testing.T) {
	svc, _, _ := newCollegeFixture()
	ctx := context.Background()

	_, err := svc.CreateCollege(ctx, models.CreateCollegeRequest{Name: "X", Code: "ALP", RegionID: "reg-1"}, adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateCollege(ctx, models.CreateCollegeRequest{Name: "X", Code: "XYZ", RegionID: "reg-404"}, adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateCollege(ctx, models.CreateCollegeRequest{Name: "X", Code: "XYZ", RegionID: "reg-1"}, officerActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateRegion(ctx, models.CreateRegionRequest{Name: "West"}, adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegionListFallsThroughOnCacheErrors(t *testing.T) {
	svc, _, cache := newCollegeFixture()
	cache.getErr = errors.New("redis down")

	regions, hit, err := svc.ListRegions(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, regions, 1)
	assert.Equal(t, "West", regions[0].Name)
}

func TestCollegeServiceWithoutCache(t *testing.T) {
	store := &memColleges{regions: []models.Region{}}
	svc := NewCollegeService(store, nil, nil, zap.NewNop())

	colleges, hit, err := svc.ListColleges(context.Background(), "reg-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, colleges)
	assert.Empty(t, colleges)

	region, err := svc.CreateRegion(context.Background(), models.CreateRegionRequest{Name: " North "}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "North", region.Name)
}
