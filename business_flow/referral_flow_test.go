package businessflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/amirphl/Kusanagi/app/services"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReferralConfig() config.ReferralConfig {
	return config.ReferralConfig{
		APIBase:   "https://api.nonai.life/api/v1",
		SyncDelay: 0,
	}
}

func putReferralPost(repo *fakePostRepo, trackingID, code string, userID, clicks, leads, conversions int64) {
	repo.put(&models.Post{
		TrackingID:          trackingID,
		Username:            "alice",
		Platform:            "instagram",
		ReferralCode:        &code,
		NonaiUserID:         &userID,
		Clicks:              clicks,
		ReferralLeads:       &leads,
		ReferralConversions: &conversions,
		Confirmed:           true,
	})
}

func TestReferralReport(t *testing.T) {
	ctx := context.Background()

	t.Run("funnel score and rates", func(t *testing.T) {
		postRepo := newFakePostRepo()
		putReferralPost(postRepo, "abc123", "550e8400-e29b-41d4-a716-446655440000", 42, 10, 2, 1)

		flow := NewReferralFlow(postRepo, &fakeNonaiClient{}, testReferralConfig())
		report, err := flow.Report(ctx)
		require.NoError(t, err)
		require.Len(t, report.Posts, 1)

		post := report.Posts[0]
		// 10 clicks + 2 leads * 10 + 1 conversion * 50
		assert.Equal(t, int64(80), post.FunnelScore)
		assert.Equal(t, 20.0, post.LeadToClickRate)
		assert.Equal(t, 50.0, post.ConversionRate)
	})

	t.Run("rates survive zero denominators", func(t *testing.T) {
		postRepo := newFakePostRepo()
		putReferralPost(postRepo, "abc123", "550e8400-e29b-41d4-a716-446655440000", 42, 0, 3, 2)

		flow := NewReferralFlow(postRepo, &fakeNonaiClient{}, testReferralConfig())
		report, err := flow.Report(ctx)
		require.NoError(t, err)
		require.Len(t, report.Posts, 1)

		// Lead rate divides by max(clicks, 1)
		assert.Equal(t, 300.0, report.Posts[0].LeadToClickRate)
	})

	t.Run("total conversions come from the per-user rollup", func(t *testing.T) {
		postRepo := newFakePostRepo()
		// Two posts of the same user both carry the user's conversion count
		putReferralPost(postRepo, "abc123", "550e8400-e29b-41d4-a716-446655440000", 42, 5, 1, 3)
		putReferralPost(postRepo, "def456", "550e8400-e29b-41d4-a716-446655440000", 42, 7, 2, 3)
		postRepo.referralSummariesByUser = []repository.ReferralGroupSummary{
			{NonaiUserID: utils.ToPtr(int64(42)), TotalPosts: 2, TotalConversions: 3},
		}

		flow := NewReferralFlow(postRepo, &fakeNonaiClient{}, testReferralConfig())
		report, err := flow.Report(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), report.TotalPosts)
		assert.Equal(t, int64(12), report.TotalClicks)
		assert.Equal(t, int64(3), report.TotalLeads)
		assert.Equal(t, int64(3), report.TotalConversions)
	})
}

func TestReferralSync(t *testing.T) {
	ctx := context.Background()

	t.Run("updates leads and conversions", func(t *testing.T) {
		postRepo := newFakePostRepo()
		putReferralPost(postRepo, "abc123", "code-a", 42, 10, 0, 0)

		client := &fakeNonaiClient{
			leadsByCode: map[string]*services.ReferralCodeLeads{
				"code-a": {TotalLeads: 6, Platform: "instagram"},
			},
			referrals: []services.UserReferral{
				{RefererUserID: 42, TotalConversions: 2},
			},
		}

		flow := NewReferralFlow(postRepo, client, testReferralConfig())
		res, err := flow.Sync(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1), res.CodesTotal)
		assert.Equal(t, int64(1), res.CodesSynced)
		assert.Zero(t, res.CodesSkipped)
		assert.Equal(t, int64(1), res.LeadsUpdated)
		assert.Equal(t, int64(1), res.ConversionsUpdated)

		post, _ := postRepo.ByTrackingID(ctx, "abc123")
		require.NotNil(t, post.ReferralLeads)
		assert.Equal(t, int64(6), *post.ReferralLeads)
		require.NotNil(t, post.ReferralConversions)
		assert.Equal(t, int64(2), *post.ReferralConversions)
		assert.NotNil(t, post.ReferralLastSynced)
	})

	t.Run("a failing code is skipped, not fatal", func(t *testing.T) {
		postRepo := newFakePostRepo()
		putReferralPost(postRepo, "abc123", "code-a", 42, 10, 0, 0)
		putReferralPost(postRepo, "def456", "code-b", 43, 5, 0, 0)

		client := &fakeNonaiClient{
			leadsByCode: map[string]*services.ReferralCodeLeads{
				"code-a": {TotalLeads: 6},
				"code-b": {TotalLeads: 4},
			},
			failingCodes: map[string]bool{"code-a": true},
		}

		flow := NewReferralFlow(postRepo, client, testReferralConfig())
		res, err := flow.Sync(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), res.CodesTotal)
		assert.Equal(t, int64(1), res.CodesSynced)
		assert.Equal(t, int64(1), res.CodesSkipped)

		post, _ := postRepo.ByTrackingID(ctx, "abc123")
		assert.Nil(t, post.ReferralLeads)
	})

	t.Run("conversion listing failure keeps synced leads", func(t *testing.T) {
		postRepo := newFakePostRepo()
		putReferralPost(postRepo, "abc123", "code-a", 42, 10, 0, 0)

		client := &fakeNonaiClient{
			leadsByCode: map[string]*services.ReferralCodeLeads{
				"code-a": {TotalLeads: 6},
			},
			referralsErr: fmt.Errorf("listing unavailable"),
		}

		flow := NewReferralFlow(postRepo, client, testReferralConfig())
		res, err := flow.Sync(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1), res.CodesSynced)
		assert.Zero(t, res.ConversionsUpdated)

		post, _ := postRepo.ByTrackingID(ctx, "abc123")
		require.NotNil(t, post.ReferralLeads)
		assert.Equal(t, int64(6), *post.ReferralLeads)
		assert.Nil(t, post.ReferralConversions)
	})
}
