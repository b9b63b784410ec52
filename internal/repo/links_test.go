package repo_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/linkhive/linkhive/internal"
	"github.com/linkhive/linkhive/internal/db"
	"github.com/linkhive/linkhive/internal/repo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepos(t *testing.T) (*repo.LinksRepo, *repo.ClicksRepo) {
	t.Helper()

	dbInstance, err := db.Init(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbInstance.Close() })

	return repo.NewLinksRepo(dbInstance), repo.NewClicksRepo(dbInstance)
}

func newLink(shortCode string) *internal.Link {
	return &internal.Link{
		ID:            uuid.NewString(),
		OriginalURL:   "https://example.com",
		ShortCode:     shortCode,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "user-1",
		CreatedByName: "User One",
		TenantID:      "tenant-a",
	}
}

func TestCreate_UniqueViolationTranslated(t *testing.T) {
	links, _ := newRepos(t)
	ctx := context.Background()

	require.NoError(t, links.Create(ctx, newLink("clash")))

	// Same code straight at the store, past any service-level pre-check:
	// the unique index is the authoritative guard.
	err := links.Create(ctx, newLink("clash"))
	assert.ErrorIs(t, err, internal.ErrShortCodeExists)
}

func TestGetByCode_ExactMatch(t *testing.T) {
	links, _ := newRepos(t)
	ctx := context.Background()

	require.NoError(t, links.Create(ctx, newLink("MixedCase")))

	got, err := links.GetByCode(ctx, "MixedCase")
	require.NoError(t, err)
	assert.Equal(t, "MixedCase", got.ShortCode)

	_, err = links.GetByCode(ctx, "mixedcase")
	assert.ErrorIs(t, err, internal.ErrLinkNotFound)
}

func TestDelete_MissingRowSurfaced(t *testing.T) {
	links, _ := newRepos(t)

	err := links.Delete(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.NotErrorIs(t, err, internal.ErrLinkNotFound)
}

func TestUpdateDescription_Missing(t *testing.T) {
	links, _ := newRepos(t)

	err := links.UpdateDescription(context.Background(), "no-such-id", "desc")
	assert.ErrorIs(t, err, internal.ErrLinkNotFound)
}

func TestIncrementClickCount(t *testing.T) {
	links, _ := newRepos(t)
	ctx := context.Background()

	link := newLink("counter")
	require.NoError(t, links.Create(ctx, link))

	for i := 0; i < 3; i++ {
		require.NoError(t, links.IncrementClickCount(ctx, link.ID))
	}

	got, err := links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ClickCount)
}

func TestAnalyticsForLink_EmptyLink(t *testing.T) {
	links, clicks := newRepos(t)
	ctx := context.Background()

	link := newLink("quiet")
	require.NoError(t, links.Create(ctx, link))

	analytics, err := clicks.AnalyticsForLink(ctx, link.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), analytics.TotalClicks)
	assert.Empty(t, analytics.RecentClicks)
}

func TestAnalyticsForLink_CountsAndSample(t *testing.T) {
	links, clicks := newRepos(t)
	ctx := context.Background()

	link := newLink("busy")
	require.NoError(t, links.Create(ctx, link))

	for i := 0; i < 4; i++ {
		require.NoError(t, clicks.Create(ctx, link.ID, "203.0.113.7", "agent"))
	}

	analytics, err := clicks.AnalyticsForLink(ctx, link.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(4), analytics.TotalClicks)
	assert.Equal(t, int64(4), analytics.ClicksToday)
	assert.Equal(t, int64(4), analytics.ClicksThisWeek)
	assert.Equal(t, int64(4), analytics.ClicksThisMonth)
	require.Len(t, analytics.RecentClicks, 4)
	assert.Equal(t, link.ID, analytics.RecentClicks[0].LinkID)
	assert.Equal(t, "203.0.113.7", analytics.RecentClicks[0].IPAddress)
	assert.Equal(t, "agent", analytics.RecentClicks[0].UserAgent)
}
