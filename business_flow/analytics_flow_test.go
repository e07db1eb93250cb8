package businessflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyticsEnv struct {
	flow      AnalyticsFlow
	postRepo  *fakePostRepo
	clickRepo *fakeClickRepo
	statsRepo *fakeStatsRepo
}

func newAnalyticsEnv() *analyticsEnv {
	postRepo := newFakePostRepo()
	clickRepo := &fakeClickRepo{}
	statsRepo := &fakeStatsRepo{}
	return &analyticsEnv{
		flow:      NewAnalyticsFlow(postRepo, clickRepo, statsRepo),
		postRepo:  postRepo,
		clickRepo: clickRepo,
		statsRepo: statsRepo,
	}
}

func TestAnalyticsTotals(t *testing.T) {
	ctx := context.Background()
	env := newAnalyticsEnv()

	confirmed := confirmedPost("abc123", time.Hour)
	confirmed.Clicks = 12
	env.postRepo.put(confirmed)
	env.postRepo.put(&models.Post{TrackingID: "def456", Clicks: 3})
	env.statsRepo.IncrementBotsBlocked(ctx)
	env.statsRepo.IncrementBotsBlocked(ctx)

	res, err := env.flow.Analytics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.TotalPosts)
	assert.Equal(t, int64(1), res.ConfirmedPosts)
	assert.Equal(t, int64(1), res.PendingPosts)
	assert.Equal(t, int64(15), res.TotalClicks)
	assert.Equal(t, int64(2), res.BotsBlocked)
}

func TestRecentClicksLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("zero limit uses the default", func(t *testing.T) {
		env := newAnalyticsEnv()
		for i := 0; i < 25; i++ {
			env.clickRepo.recent = append(env.clickRepo.recent, repository.RecentClick{
				TrackingID: fmt.Sprintf("id%02d", i),
				ClickedAt:  utils.UTCNow(),
			})
		}

		res, err := env.flow.RecentClicks(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, res.Clicks, defaultRecentClicksLimit)
	})

	t.Run("oversized limit is rejected", func(t *testing.T) {
		env := newAnalyticsEnv()

		_, err := env.flow.RecentClicks(ctx, 2000)
		assert.True(t, IsInvalidReportLimit(err))
	})
}

func TestConceptClicks(t *testing.T) {
	ctx := context.Background()
	env := newAnalyticsEnv()

	// Rows arrive ranked by total clicks within each platform
	env.postRepo.conceptStats = []repository.ConceptPlatformStat{
		{Platform: "instagram", ConceptKey: "spring_sale", TotalPosts: 4, TotalClicks: 30, AvgClicks: 7.5, MaxClicks: 12, PostsWithClicks: 3},
		{Platform: "instagram", ConceptKey: "winter_drop", TotalPosts: 2, TotalClicks: 10, AvgClicks: 5, MaxClicks: 8, PostsWithClicks: 2},
		{Platform: "twitter", ConceptKey: "winter_drop", TotalPosts: 1, TotalClicks: 6, AvgClicks: 6, MaxClicks: 6, PostsWithClicks: 1},
	}

	res, err := env.flow.ConceptClicks(ctx)
	require.NoError(t, err)

	require.Len(t, res.Platforms["instagram"], 2)
	assert.Equal(t, "spring_sale", res.Platforms["instagram"][0].ConceptKey)
	assert.Equal(t, 75.0, res.Platforms["instagram"][0].ClickRate)

	assert.Equal(t, "spring_sale", res.BestPerPlatform["instagram"])
	assert.Equal(t, "winter_drop", res.BestPerPlatform["twitter"])
	assert.Equal(t, int64(2), res.TotalConcepts)
}

func TestPostsListing(t *testing.T) {
	ctx := context.Background()
	env := newAnalyticsEnv()

	env.postRepo.put(confirmedPost("abc123", time.Hour))
	env.postRepo.put(&models.Post{TrackingID: "def456", Platform: "twitter"})

	t.Run("filters by confirmation", func(t *testing.T) {
		res, err := env.flow.Posts(ctx, &dto.ListPostsRequest{Confirmed: utils.ToPtr(true)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
		require.Len(t, res.Posts, 1)
		assert.Equal(t, "abc123", res.Posts[0].TrackingID)
	})

	t.Run("filters by platform", func(t *testing.T) {
		res, err := env.flow.Posts(ctx, &dto.ListPostsRequest{Platform: utils.ToPtr("twitter")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
	})
}

func TestBadgeStats(t *testing.T) {
	ctx := context.Background()
	env := newAnalyticsEnv()

	confirmed := confirmedPost("abc123", time.Hour)
	confirmed.Clicks = 9
	env.postRepo.put(confirmed)
	// Unconfirmed clicks stay out of the public widget
	env.postRepo.put(&models.Post{TrackingID: "def456", Clicks: 4})

	res, err := env.flow.BadgeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.TotalClicks)
}
