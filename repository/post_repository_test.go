package repository

import (
	"testing"
	"time"

	testingutil "github.com/amirphl/Kusanagi/testing"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRepoTestDB creates an isolated database or skips when no PostgreSQL
// server is reachable.
func setupRepoTestDB(t *testing.T) *testingutil.TestDB {
	t.Helper()
	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() { _ = testDB.TeardownTestDB() })
	return testDB
}

func TestPostRepositoryIncrementClicks(t *testing.T) {
	testDB := setupRepoTestDB(t)
	repo := NewPostRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()
	fixtures := testingutil.NewTestFixtures(testDB)

	_, err := fixtures.CreateConfirmedPost("abc123", "instagram", utils.UTCNow().Add(-time.Hour))
	require.NoError(t, err)

	t.Run("returns the running count", func(t *testing.T) {
		at := utils.UTCNow()
		clicks, err := repo.IncrementClicks(ctx, "abc123", at)
		require.NoError(t, err)
		assert.Equal(t, int64(1), clicks)

		clicks, err = repo.IncrementClicks(ctx, "abc123", at.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(2), clicks)
	})

	t.Run("first click timestamp is kept", func(t *testing.T) {
		post, err := repo.ByTrackingID(ctx, "abc123")
		require.NoError(t, err)
		require.NotNil(t, post.FirstClick)
		require.NotNil(t, post.LastClick)
		assert.True(t, post.LastClick.After(*post.FirstClick))
	})

	t.Run("unknown tracking id errors", func(t *testing.T) {
		_, err := repo.IncrementClicks(ctx, "nosuch", utils.UTCNow())
		assert.Error(t, err)
	})
}

func TestPostRepositoryConfirm(t *testing.T) {
	testDB := setupRepoTestDB(t)
	repo := NewPostRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()
	fixtures := testingutil.NewTestFixtures(testDB)

	post, err := fixtures.CreateTestPost("facebook")
	require.NoError(t, err)

	t.Run("confirms and updates username", func(t *testing.T) {
		updated, err := repo.Confirm(ctx, post.TrackingID, "https://example.com/p/1", "instagram", utils.ToPtr("alice"), nil, nil, utils.UTCNow())
		require.NoError(t, err)
		assert.True(t, updated)

		got, err := repo.ByTrackingID(ctx, post.TrackingID)
		require.NoError(t, err)
		assert.True(t, got.Confirmed)
		require.NotNil(t, got.ConfirmedAt)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "instagram", got.Platform)
	})

	t.Run("confirmation timestamp survives a second confirm", func(t *testing.T) {
		before, err := repo.ByTrackingID(ctx, post.TrackingID)
		require.NoError(t, err)

		updated, err := repo.Confirm(ctx, post.TrackingID, "https://example.com/p/2", "instagram", nil, nil, nil, utils.UTCNow().Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, updated)

		after, err := repo.ByTrackingID(ctx, post.TrackingID)
		require.NoError(t, err)
		assert.Equal(t, before.ConfirmedAt.Unix(), after.ConfirmedAt.Unix())
	})

	t.Run("placeholder username is not stored", func(t *testing.T) {
		updated, err := repo.Confirm(ctx, post.TrackingID, "https://example.com/p/3", "instagram", utils.ToPtr("unknown"), nil, nil, utils.UTCNow())
		require.NoError(t, err)
		assert.True(t, updated)

		got, err := repo.ByTrackingID(ctx, post.TrackingID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("unknown tracking id reports no update", func(t *testing.T) {
		updated, err := repo.Confirm(ctx, "nosuch", "https://example.com/p/4", "instagram", nil, nil, nil, utils.UTCNow())
		require.NoError(t, err)
		assert.False(t, updated)
	})
}

func TestPostRepositoryReferralSync(t *testing.T) {
	testDB := setupRepoTestDB(t)
	repo := NewPostRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()
	fixtures := testingutil.NewTestFixtures(testDB)

	_, err := fixtures.CreateReferralPost("aaa111", "code-a", 42, 10, 0, 0)
	require.NoError(t, err)
	_, err = fixtures.CreateReferralPost("bbb222", "code-a", 42, 5, 0, 0)
	require.NoError(t, err)
	_, err = fixtures.CreateReferralPost("ccc333", "code-b", 43, 2, 0, 0)
	require.NoError(t, err)

	t.Run("distinct referral codes", func(t *testing.T) {
		codes, err := repo.DistinctReferralCodes(ctx)
		require.NoError(t, err)
		require.Len(t, codes, 2)
		assert.Equal(t, "code-a", codes[0].ReferralCode)
		assert.Equal(t, "code-b", codes[1].ReferralCode)
	})

	t.Run("leads update touches every post of the code", func(t *testing.T) {
		updated, err := repo.UpdateReferralLeads(ctx, "code-a", 9, utils.UTCNow())
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)

		post, err := repo.ByTrackingID(ctx, "aaa111")
		require.NoError(t, err)
		require.NotNil(t, post.ReferralLeads)
		assert.Equal(t, int64(9), *post.ReferralLeads)
		assert.NotNil(t, post.ReferralLastSynced)
	})

	t.Run("conversions update by user id", func(t *testing.T) {
		updated, err := repo.UpdateReferralConversions(ctx, 43, 4, utils.UTCNow())
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		post, err := repo.ByTrackingID(ctx, "ccc333")
		require.NoError(t, err)
		require.NotNil(t, post.ReferralConversions)
		assert.Equal(t, int64(4), *post.ReferralConversions)
	})
}

func TestClickEventRepositoryRecentHuman(t *testing.T) {
	testDB := setupRepoTestDB(t)
	clickRepo := NewClickEventRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()
	fixtures := testingutil.NewTestFixtures(testDB)

	_, err := fixtures.CreateConfirmedPost("abc123", "instagram", utils.UTCNow().Add(-time.Hour))
	require.NoError(t, err)

	base := utils.UTCNow().Add(-10 * time.Minute)
	for i := 0; i < 3; i++ {
		_, err := fixtures.CreateTestClickEvent("abc123", "instagram", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	rows, err := clickRepo.RecentHuman(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Newest first
	assert.True(t, rows[0].ClickedAt.After(rows[1].ClickedAt))
	assert.Equal(t, "abc123", rows[0].TrackingID)
	assert.Equal(t, "testuser", rows[0].Username)
}

func TestStatsRepository(t *testing.T) {
	testDB := setupRepoTestDB(t)
	repo := NewStatsRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	require.NoError(t, repo.Ensure(ctx))
	// Idempotent
	require.NoError(t, repo.Ensure(ctx))

	blocked, err := repo.BotsBlocked(ctx)
	require.NoError(t, err)
	assert.Zero(t, blocked)

	require.NoError(t, repo.IncrementBotsBlocked(ctx))
	require.NoError(t, repo.IncrementBotsBlocked(ctx))

	blocked, err = repo.BotsBlocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), blocked)

	require.NoError(t, repo.Reset(ctx))
	blocked, err = repo.BotsBlocked(ctx)
	require.NoError(t, err)
	assert.Zero(t, blocked)
}
