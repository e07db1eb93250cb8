package businessflow

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminEnv struct {
	flow      AdminFlow
	postRepo  *fakePostRepo
	clickRepo *fakeClickRepo
	statsRepo *fakeStatsRepo
	limiter   *stubLimiter
}

func newAdminEnv() *adminEnv {
	postRepo := newFakePostRepo()
	clickRepo := &fakeClickRepo{}
	statsRepo := &fakeStatsRepo{}
	limiter := &stubLimiter{allow: true}
	return &adminEnv{
		flow:      NewAdminFlow(postRepo, clickRepo, statsRepo, limiter, nil, nil, config.DeploymentConfig{Version: "test"}),
		postRepo:  postRepo,
		clickRepo: clickRepo,
		statsRepo: statsRepo,
		limiter:   limiter,
	}
}

func TestAdminReset(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv()

	env.postRepo.put(confirmedPost("abc123", time.Hour))
	env.clickRepo.Save(ctx, &models.ClickEvent{TrackingID: "abc123"})
	env.statsRepo.IncrementBotsBlocked(ctx)

	res, err := env.flow.Reset(ctx)
	require.NoError(t, err)
	assert.True(t, res.PostsDeleted)
	assert.True(t, res.ClicksDeleted)
	assert.True(t, res.StatsReset)
	assert.True(t, res.LimiterReset)

	posts, _ := env.postRepo.Count(ctx, models.PostFilter{})
	assert.Zero(t, posts)
	assert.Empty(t, env.clickRepo.events)
	blocked, _ := env.statsRepo.BotsBlocked(ctx)
	assert.Zero(t, blocked)
}

func TestAdminHealth(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv()

	env.postRepo.put(confirmedPost("abc123", time.Hour))
	env.postRepo.put(&models.Post{TrackingID: "def456"})
	env.statsRepo.IncrementBotsBlocked(ctx)
	env.limiter.size = 3

	res, err := env.flow.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", res.Status)
	assert.Equal(t, "up", res.Database)
	assert.Equal(t, "disabled", res.Cache)
	assert.Equal(t, int64(1), res.ConfirmedPosts)
	assert.Equal(t, int64(1), res.PendingPosts)
	assert.Equal(t, int64(1), res.BotsBlocked)
	assert.Equal(t, 3, res.LimiterSize)
	assert.Equal(t, "test", res.Version)
}

func TestAdminExportAnalyticsCSV(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv()

	post := confirmedPost("abc123", time.Hour)
	post.Clicks = 7
	env.postRepo.put(post)

	filename, data, err := env.flow.ExportAnalytics(ctx, "csv")
	require.NoError(t, err)
	assert.Equal(t, "click_analytics.csv", filename)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, analyticsExportHeader, records[0])
	assert.Equal(t, "abc123", records[1][0])
	assert.Equal(t, "7", records[1][6])
	assert.Equal(t, "true", records[1][7])
}

func TestAdminExportReferralsCSV(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv()
	putReferralPost(env.postRepo, "abc123", "code-a", 42, 10, 2, 1)

	filename, data, err := env.flow.ExportReferrals(ctx, "csv")
	require.NoError(t, err)
	assert.Equal(t, "referral_funnel.csv", filename)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, referralExportHeader, records[0])
	// funnel score column
	assert.Equal(t, "80", records[1][9])
}

func TestAdminExportAnalyticsExcel(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv()
	env.postRepo.put(confirmedPost("abc123", time.Hour))

	filename, data, err := env.flow.ExportAnalytics(ctx, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "click_analytics.xlsx", filename)
	assert.NotEmpty(t, data)
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain name", input: "instagram", expected: "instagram"},
		{name: "forbidden characters", input: "a:b/c?d", expected: "a_b_c_d"},
		{name: "over 31 chars", input: strings.Repeat("x", 40), expected: strings.Repeat("x", 31)},
		{name: "empty", input: "", expected: "Sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeSheetName(tt.input))
		})
	}
}
