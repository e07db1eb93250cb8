package businessflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirphl/Kusanagi/app/services"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
)

// fakePostRepo is an in-memory PostRepository keyed by tracking id.
type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.Post

	// existsAlways forces every uniqueness probe to report a collision
	existsAlways bool
	existsCalls  int

	conceptStats []repository.ConceptPlatformStat

	referralSummariesByUser     []repository.ReferralGroupSummary
	referralSummariesByConcept  []repository.ReferralGroupSummary
	referralSummariesByPlatform []repository.ReferralGroupSummary
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) put(post *models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.TrackingID] = post
}

func (r *fakePostRepo) ByID(ctx context.Context, id uint) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.ID == id {
			return post, nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) ByFilter(ctx context.Context, filter models.PostFilter, orderBy string, limit, offset int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, post := range r.posts {
		if filter.TrackingID != nil && post.TrackingID != *filter.TrackingID {
			continue
		}
		if filter.Confirmed != nil && post.Confirmed != *filter.Confirmed {
			continue
		}
		if filter.Platform != nil && post.Platform != *filter.Platform {
			continue
		}
		out = append(out, post)
	}
	return out, nil
}

func (r *fakePostRepo) Save(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = uint(len(r.posts) + 1)
	r.posts[post.TrackingID] = post
	return nil
}

func (r *fakePostRepo) SaveBatch(ctx context.Context, posts []*models.Post) error {
	for _, post := range posts {
		if err := r.Save(ctx, post); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakePostRepo) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakePostRepo) Exists(ctx context.Context, filter models.PostFilter) (bool, error) {
	r.mu.Lock()
	r.existsCalls++
	forced := r.existsAlways
	r.mu.Unlock()
	if forced {
		return true, nil
	}
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakePostRepo) ByTrackingID(ctx context.Context, trackingID string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[trackingID], nil
}

func (r *fakePostRepo) IncrementClicks(ctx context.Context, trackingID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[trackingID]
	if !ok {
		return 0, fmt.Errorf("post %s not found", trackingID)
	}
	post.Clicks++
	post.LastClick = &at
	if post.FirstClick == nil {
		post.FirstClick = &at
	}
	return post.Clicks, nil
}

func (r *fakePostRepo) Confirm(ctx context.Context, trackingID, postURL, platform string, username, ayrsharePostID, socialPostID *string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[trackingID]
	if !ok {
		return false, nil
	}
	post.PostURL = &postURL
	post.Platform = platform
	post.Confirmed = true
	if post.ConfirmedAt == nil {
		post.ConfirmedAt = &at
	}
	if ayrsharePostID != nil {
		post.AyrsharePostID = ayrsharePostID
	}
	if socialPostID != nil {
		post.SocialPostID = socialPostID
	}
	if username != nil && *username != "" && *username != DefaultUsername {
		post.Username = *username
	}
	return true, nil
}

func (r *fakePostRepo) UpdateMetadata(ctx context.Context, trackingID string, postURL, username *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[trackingID]
	if !ok {
		return false, nil
	}
	if postURL != nil {
		post.PostURL = postURL
	}
	if username != nil {
		post.Username = *username
	}
	return true, nil
}

func (r *fakePostRepo) SumClicks(ctx context.Context, filter models.PostFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	var sum int64
	for _, row := range rows {
		sum += row.Clicks
	}
	return sum, nil
}

func (r *fakePostRepo) ClicksByPlatform(ctx context.Context) ([]repository.LabelClicks, error) {
	return nil, nil
}

func (r *fakePostRepo) ClicksByBadge(ctx context.Context) ([]repository.LabelClicks, error) {
	return nil, nil
}

func (r *fakePostRepo) ClicksByConcept(ctx context.Context) ([]repository.LabelClicks, error) {
	return nil, nil
}

func (r *fakePostRepo) ConceptPlatformStats(ctx context.Context) ([]repository.ConceptPlatformStat, error) {
	return r.conceptStats, nil
}

func (r *fakePostRepo) ReferralPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, post := range r.posts {
		if post.ReferralCode != nil && *post.ReferralCode != "" {
			out = append(out, post)
		}
	}
	return out, nil
}

func (r *fakePostRepo) ReferralSummaryByUser(ctx context.Context) ([]repository.ReferralGroupSummary, error) {
	return r.referralSummariesByUser, nil
}

func (r *fakePostRepo) ReferralSummaryByConcept(ctx context.Context) ([]repository.ReferralGroupSummary, error) {
	return r.referralSummariesByConcept, nil
}

func (r *fakePostRepo) ReferralSummaryByPlatform(ctx context.Context) ([]repository.ReferralGroupSummary, error) {
	return r.referralSummariesByPlatform, nil
}

func (r *fakePostRepo) DistinctReferralCodes(ctx context.Context) ([]repository.ReferralCodeRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []repository.ReferralCodeRef
	for _, post := range r.posts {
		if post.ReferralCode == nil || seen[*post.ReferralCode] {
			continue
		}
		seen[*post.ReferralCode] = true
		out = append(out, repository.ReferralCodeRef{ReferralCode: *post.ReferralCode, NonaiUserID: post.NonaiUserID})
	}
	return out, nil
}

func (r *fakePostRepo) UpdateReferralLeads(ctx context.Context, referralCode string, leads int64, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, post := range r.posts {
		if post.ReferralCode != nil && *post.ReferralCode == referralCode {
			l := leads
			post.ReferralLeads = &l
			post.ReferralLastSynced = &at
			updated++
		}
	}
	return updated, nil
}

func (r *fakePostRepo) UpdateReferralConversions(ctx context.Context, nonaiUserID, conversions int64, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, post := range r.posts {
		if post.NonaiUserID != nil && *post.NonaiUserID == nonaiUserID {
			c := conversions
			post.ReferralConversions = &c
			post.ReferralLastSynced = &at
			updated++
		}
	}
	return updated, nil
}

func (r *fakePostRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = make(map[string]*models.Post)
	return nil
}

// fakeClickRepo is an append-only in-memory ClickEventRepository.
type fakeClickRepo struct {
	mu     sync.Mutex
	events []*models.ClickEvent
	recent []repository.RecentClick
}

func (r *fakeClickRepo) ByID(ctx context.Context, id uint) (*models.ClickEvent, error) {
	return nil, nil
}

func (r *fakeClickRepo) ByFilter(ctx context.Context, filter models.ClickEventFilter, orderBy string, limit, offset int) ([]*models.ClickEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ClickEvent
	for _, event := range r.events {
		if filter.TrackingID != nil && event.TrackingID != *filter.TrackingID {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (r *fakeClickRepo) Save(ctx context.Context, event *models.ClickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uint(len(r.events) + 1)
	r.events = append(r.events, event)
	return nil
}

func (r *fakeClickRepo) SaveBatch(ctx context.Context, events []*models.ClickEvent) error {
	for _, event := range events {
		if err := r.Save(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeClickRepo) Count(ctx context.Context, filter models.ClickEventFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeClickRepo) Exists(ctx context.Context, filter models.ClickEventFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeClickRepo) RecentHuman(ctx context.Context, limit int) ([]repository.RecentClick, error) {
	if limit > 0 && limit < len(r.recent) {
		return r.recent[:limit], nil
	}
	return r.recent, nil
}

func (r *fakeClickRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return nil
}

// fakeStatsRepo is an in-memory StatsRepository.
type fakeStatsRepo struct {
	mu          sync.Mutex
	botsBlocked int64
}

func (r *fakeStatsRepo) Ensure(ctx context.Context) error { return nil }

func (r *fakeStatsRepo) BotsBlocked(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.botsBlocked, nil
}

func (r *fakeStatsRepo) IncrementBotsBlocked(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.botsBlocked++
	return nil
}

func (r *fakeStatsRepo) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.botsBlocked = 0
	return nil
}

// fakeEngagementRepo serves canned engagement rows.
type fakeEngagementRepo struct {
	sources models.EngagementSources
	rows    []repository.UnifiedRow
}

func (r *fakeEngagementRepo) Sources(ctx context.Context) (models.EngagementSources, error) {
	return r.sources, nil
}

func (r *fakeEngagementRepo) UnifiedRows(ctx context.Context, sources models.EngagementSources, limit int) ([]repository.UnifiedRow, error) {
	return r.rows, nil
}

// fakeNonaiClient serves canned platform API responses.
type fakeNonaiClient struct {
	leadsByCode  map[string]*services.ReferralCodeLeads
	failingCodes map[string]bool
	referrals    []services.UserReferral
	referralsErr error
	leadCalls    []string
}

func (c *fakeNonaiClient) ReferralCodeLeads(ctx context.Context, referralCode string) (*services.ReferralCodeLeads, error) {
	c.leadCalls = append(c.leadCalls, referralCode)
	if c.failingCodes[referralCode] {
		return nil, fmt.Errorf("api failure for %s", referralCode)
	}
	if leads, ok := c.leadsByCode[referralCode]; ok {
		return leads, nil
	}
	return &services.ReferralCodeLeads{}, nil
}

func (c *fakeNonaiClient) AllUserReferrals(ctx context.Context) ([]services.UserReferral, error) {
	if c.referralsErr != nil {
		return nil, c.referralsErr
	}
	return c.referrals, nil
}

// stubLimiter answers every Allow call with a fixed verdict.
type stubLimiter struct {
	allow bool
	size  int
}

func (l *stubLimiter) Allow(ip, trackingID string, at time.Time) bool { return l.allow }
func (l *stubLimiter) Start(ctx context.Context) func()               { return func() {} }
func (l *stubLimiter) Size() int                                      { return l.size }
func (l *stubLimiter) Reset()                                         { l.size = 0 }
