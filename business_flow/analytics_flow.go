package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
)

const defaultRecentClicksLimit = 20

// AnalyticsFlow serves the click dashboards and public widgets.
type AnalyticsFlow interface {
	Analytics(ctx context.Context) (*dto.AnalyticsResponse, error)
	ConceptClicks(ctx context.Context) (*dto.ConceptClicksResponse, error)
	Posts(ctx context.Context, req *dto.ListPostsRequest) (*dto.ListPostsResponse, error)
	RecentClicks(ctx context.Context, limit int) (*dto.RecentClicksResponse, error)
	BadgeStats(ctx context.Context) (*dto.BadgeStatsResponse, error)
}

type AnalyticsFlowImpl struct {
	postRepo  repository.PostRepository
	clickRepo repository.ClickEventRepository
	statsRepo repository.StatsRepository
}

func NewAnalyticsFlow(
	postRepo repository.PostRepository,
	clickRepo repository.ClickEventRepository,
	statsRepo repository.StatsRepository,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		postRepo:  postRepo,
		clickRepo: clickRepo,
		statsRepo: statsRepo,
	}
}

func toLabelClicksDTOs(rows []repository.LabelClicks) []dto.LabelClicksDTO {
	out := make([]dto.LabelClicksDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.LabelClicksDTO{Label: row.Label, Clicks: row.Clicks})
	}
	return out
}

func toRecentClickDTOs(rows []repository.RecentClick) []dto.RecentClickDTO {
	out := make([]dto.RecentClickDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.RecentClickDTO{
			ClickedAt:  row.ClickedAt.Format(time.RFC3339),
			TrackingID: row.TrackingID,
			Platform:   row.Platform,
			BadgeType:  row.BadgeType,
			ConceptKey: row.ConceptKey,
			PostURL:    row.PostURL,
			Username:   row.Username,
		})
	}
	return out
}

func (f *AnalyticsFlowImpl) Analytics(ctx context.Context) (*dto.AnalyticsResponse, error) {
	totalPosts, err := f.postRepo.Count(ctx, models.PostFilter{})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count tracked posts", err)
	}
	confirmed, err := f.postRepo.Count(ctx, models.PostFilter{Confirmed: utils.ToPtr(true)})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count confirmed posts", err)
	}
	totalClicks, err := f.postRepo.SumClicks(ctx, models.PostFilter{})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to sum clicks", err)
	}
	botsBlocked, err := f.statsRepo.BotsBlocked(ctx)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to read bot counter", err)
	}
	byPlatform, err := f.postRepo.ClicksByPlatform(ctx)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to break down clicks by platform", err)
	}
	byBadge, err := f.postRepo.ClicksByBadge(ctx)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to break down clicks by badge", err)
	}
	recent, err := f.clickRepo.RecentHuman(ctx, defaultRecentClicksLimit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to load recent clicks", err)
	}

	return &dto.AnalyticsResponse{
		TotalPosts:       totalPosts,
		ConfirmedPosts:   confirmed,
		PendingPosts:     totalPosts - confirmed,
		TotalClicks:      totalClicks,
		BotsBlocked:      botsBlocked,
		ClicksByPlatform: toLabelClicksDTOs(byPlatform),
		ClicksByBadge:    toLabelClicksDTOs(byBadge),
		RecentClicks:     toRecentClickDTOs(recent),
	}, nil
}

func (f *AnalyticsFlowImpl) ConceptClicks(ctx context.Context) (*dto.ConceptClicksResponse, error) {
	stats, err := f.postRepo.ConceptPlatformStats(ctx)
	if err != nil {
		return nil, NewBusinessError("CONCEPT_REPORT_FAILED", "Failed to aggregate concept stats", err)
	}
	totals, err := f.postRepo.ClicksByConcept(ctx)
	if err != nil {
		return nil, NewBusinessError("CONCEPT_REPORT_FAILED", "Failed to total clicks by concept", err)
	}

	platforms := make(map[string][]dto.ConceptStatDTO)
	bestPerPlatform := make(map[string]string)
	concepts := make(map[string]bool)
	for _, row := range stats {
		clickRate := 0.0
		if row.TotalPosts > 0 {
			clickRate = round1(float64(row.PostsWithClicks) / float64(row.TotalPosts) * 100)
		}
		platforms[row.Platform] = append(platforms[row.Platform], dto.ConceptStatDTO{
			ConceptKey:      row.ConceptKey,
			TotalPosts:      row.TotalPosts,
			TotalClicks:     row.TotalClicks,
			AvgClicks:       round1(row.AvgClicks),
			MaxClicks:       row.MaxClicks,
			PostsWithClicks: row.PostsWithClicks,
			ClickRate:       clickRate,
		})
		// Rows arrive ranked by total clicks within each platform, so the
		// first concept seen per platform is the best one
		if _, ok := bestPerPlatform[row.Platform]; !ok {
			bestPerPlatform[row.Platform] = row.ConceptKey
		}
		concepts[row.ConceptKey] = true
	}

	return &dto.ConceptClicksResponse{
		Platforms:       platforms,
		BestPerPlatform: bestPerPlatform,
		TotalConcepts:   int64(len(concepts)),
		Totals:          toLabelClicksDTOs(totals),
	}, nil
}

func (f *AnalyticsFlowImpl) Posts(ctx context.Context, req *dto.ListPostsRequest) (*dto.ListPostsResponse, error) {
	filter := models.PostFilter{
		Platform:  req.Platform,
		Confirmed: req.Confirmed,
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	total, err := f.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("POST_LIST_FAILED", "Failed to count tracked posts", err)
	}
	rows, err := f.postRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, req.Offset)
	if err != nil {
		return nil, NewBusinessError("POST_LIST_FAILED", "Failed to list tracked posts", err)
	}

	posts := make([]dto.PostDTO, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, ToPostDTO(*row))
	}
	return &dto.ListPostsResponse{Posts: posts, Total: total}, nil
}

func (f *AnalyticsFlowImpl) RecentClicks(ctx context.Context, limit int) (*dto.RecentClicksResponse, error) {
	if limit <= 0 {
		limit = defaultRecentClicksLimit
	}
	if limit > 1000 {
		return nil, ErrInvalidReportLimit
	}
	rows, err := f.clickRepo.RecentHuman(ctx, limit)
	if err != nil {
		return nil, NewBusinessError("RECENT_CLICKS_FAILED", "Failed to load recent clicks", err)
	}
	return &dto.RecentClicksResponse{Clicks: toRecentClickDTOs(rows)}, nil
}

func (f *AnalyticsFlowImpl) BadgeStats(ctx context.Context) (*dto.BadgeStatsResponse, error) {
	totalClicks, err := f.postRepo.SumClicks(ctx, models.PostFilter{Confirmed: utils.ToPtr(true)})
	if err != nil {
		return nil, NewBusinessError("BADGE_STATS_FAILED", "Failed to sum clicks", err)
	}
	byBadge, err := f.postRepo.ClicksByBadge(ctx)
	if err != nil {
		return nil, NewBusinessError("BADGE_STATS_FAILED", "Failed to break down clicks by badge", err)
	}
	return &dto.BadgeStatsResponse{
		TotalClicks:   totalClicks,
		ClicksByBadge: toLabelClicksDTOs(byBadge),
	}, nil
}
