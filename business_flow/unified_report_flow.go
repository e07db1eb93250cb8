package businessflow

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/redis/go-redis/v9"
)

const (
	unifiedReportCacheKey = "unified_report"
	unifiedReportRowLimit = 500

	// Each link click weighs as much as five engagement points in the
	// combined score.
	linkClickWeight = 5
)

// UnifiedReportFlow merges link clicks with engagement analytics from the
// external pipelines. Results are cached because the report joins across
// tables this service does not own.
type UnifiedReportFlow interface {
	Report(ctx context.Context) (*dto.UnifiedReportResponse, error)
}

type UnifiedReportFlowImpl struct {
	postRepo repository.PostRepository
	engRepo  repository.EngagementRepository
	rc       *redis.Client
	cacheCfg config.CacheConfig
}

func NewUnifiedReportFlow(
	postRepo repository.PostRepository,
	engRepo repository.EngagementRepository,
	rc *redis.Client,
	cacheCfg config.CacheConfig,
) UnifiedReportFlow {
	return &UnifiedReportFlowImpl{
		postRepo: postRepo,
		engRepo:  engRepo,
		rc:       rc,
		cacheCfg: cacheCfg,
	}
}

func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}

func engagementSourceLabel(sources models.EngagementSources) string {
	switch sources {
	case models.EngagementSourcesBoth:
		return "images+reels"
	case models.EngagementSourcesImagesOnly:
		return "images"
	case models.EngagementSourcesReelsOnly:
		return "reels"
	default:
		return "none"
	}
}

func zeroIfNilFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (f *UnifiedReportFlowImpl) Report(ctx context.Context) (*dto.UnifiedReportResponse, error) {
	cacheKey := redisKey(f.cacheCfg, unifiedReportCacheKey)

	// Cache hit serves the report as generated earlier, flagged as cached.
	if f.rc != nil {
		if bs, err := f.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var out dto.UnifiedReportResponse
			if err := json.Unmarshal(bs, &out); err == nil {
				out.Cached = true
				return &out, nil
			}
		}
	}

	sources, err := f.engRepo.Sources(ctx)
	if err != nil {
		return nil, NewBusinessError("UNIFIED_REPORT_FAILED", "Failed to probe engagement tables", err)
	}
	rows, err := f.engRepo.UnifiedRows(ctx, sources, unifiedReportRowLimit)
	if err != nil {
		return nil, NewBusinessError("UNIFIED_REPORT_FAILED", "Failed to load unified rows", err)
	}

	out := f.buildReport(sources, rows)

	if f.rc != nil {
		if bs, err := json.Marshal(out); err == nil {
			if err := f.rc.Set(ctx, cacheKey, bs, f.cacheCfg.DefaultTTL).Err(); err != nil {
				log.Printf("unified report: cache write failed: %v", err)
			}
		}
	}

	return out, nil
}

type platformAccumulator struct {
	posts      int64
	clicks     int64
	engagement float64
	combined   float64
}

type conceptAccumulator struct {
	posts       int64
	clicks      int64
	engagement  float64
	combined    float64
	perPlatform map[string]*platformAccumulator
}

func accumulate(m map[string]*platformAccumulator, platform string, clicks int64, engagement, combined float64) {
	acc := m[platform]
	if acc == nil {
		acc = &platformAccumulator{}
		m[platform] = acc
	}
	acc.posts++
	acc.clicks += clicks
	acc.engagement += engagement
	acc.combined += combined
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (f *UnifiedReportFlowImpl) buildReport(sources models.EngagementSources, rows []repository.UnifiedRow) *dto.UnifiedReportResponse {
	posts := make([]dto.UnifiedPostDTO, 0, len(rows))
	perPlatform := make(map[string]*platformAccumulator)
	perConcept := make(map[string]*conceptAccumulator)

	var totalClicks int64
	var totalEngagement float64

	for _, row := range rows {
		engagement := zeroIfNilFloat(row.EngagementScore)
		combined := engagement + float64(row.LinkClicks)*linkClickWeight

		contentType := row.ContentType
		if contentType == "" {
			contentType = models.ContentTypeUnknown
		}

		// Engagement fields pass through as-is so posts without a
		// matching engagement row serialize them as null
		posts = append(posts, dto.UnifiedPostDTO{
			TrackingID:      row.TrackingID,
			Platform:        row.Platform,
			ConceptKey:      row.ConceptKey,
			PostURL:         row.PostURL,
			LinkClicks:      row.LinkClicks,
			PostedAt:        utils.FormatRFC3339Ptr(row.PostedAt),
			EngagementScore: row.EngagementScore,
			Likes:           row.Likes,
			Comments:        row.Comments,
			Shares:          row.Shares,
			Impressions:     row.Impressions,
			Reach:           row.Reach,
			Views:           row.Views,
			CombinedScore:   round1(combined),
			ContentType:     contentType,
			SourceTable:     row.SourceTable,
			FetchedAt:       utils.FormatRFC3339Ptr(row.AnalyticsFetchedAt),
		})

		totalClicks += row.LinkClicks
		totalEngagement += engagement

		accumulate(perPlatform, row.Platform, row.LinkClicks, engagement, combined)

		conceptKey := utils.UnknownLabel
		if row.ConceptKey != nil && *row.ConceptKey != "" {
			conceptKey = *row.ConceptKey
		}
		cacc := perConcept[conceptKey]
		if cacc == nil {
			cacc = &conceptAccumulator{perPlatform: make(map[string]*platformAccumulator)}
			perConcept[conceptKey] = cacc
		}
		cacc.posts++
		cacc.clicks += row.LinkClicks
		cacc.engagement += engagement
		cacc.combined += combined
		accumulate(cacc.perPlatform, row.Platform, row.LinkClicks, engagement, combined)
	}

	platforms := make([]dto.UnifiedPlatformSummaryDTO, 0, len(perPlatform))
	var bestPlatform *string
	bestAvg := -1.0
	for _, name := range sortedKeys(perPlatform) {
		acc := perPlatform[name]
		avgCombined := 0.0
		if acc.posts > 0 {
			avgCombined = acc.combined / float64(acc.posts)
		}
		platforms = append(platforms, dto.UnifiedPlatformSummaryDTO{
			Platform:         name,
			Posts:            acc.posts,
			TotalClicks:      acc.clicks,
			TotalEngagement:  round1(acc.engagement),
			AvgCombinedScore: round1(avgCombined),
		})
		// Strict comparison on sorted names keeps the lexicographically
		// smallest platform on ties.
		if avgCombined > bestAvg {
			bestAvg = avgCombined
			n := name
			bestPlatform = &n
		}
	}

	concepts, bestConceptPerPlatform := f.conceptSummaries(perConcept)

	return &dto.UnifiedReportResponse{
		GeneratedAt:            utils.UTCNow().Format(time.RFC3339),
		EngagementSource:       engagementSourceLabel(sources),
		TotalPosts:             int64(len(rows)),
		TotalClicks:            totalClicks,
		TotalEngagement:        round1(totalEngagement),
		BestPlatform:           bestPlatform,
		Platforms:              platforms,
		Concepts:               concepts,
		BestConceptPerPlatform: bestConceptPerPlatform,
		Posts:                  posts,
	}
}

// conceptSummaries ranks concepts by total combined score and builds both
// cross tabulations: the best platform nested in each concept row, and the
// best concept keyed per platform. Ties fall to the lexicographically
// smallest key on both axes.
func (f *UnifiedReportFlowImpl) conceptSummaries(perConcept map[string]*conceptAccumulator) ([]dto.UnifiedConceptSummaryDTO, map[string]string) {
	type platformBest struct {
		concept  string
		combined float64
	}
	bestPerPlatform := make(map[string]platformBest)

	concepts := make([]dto.UnifiedConceptSummaryDTO, 0, len(perConcept))
	for _, conceptKey := range sortedKeys(perConcept) {
		cacc := perConcept[conceptKey]

		breakdown := make([]dto.UnifiedPlatformSummaryDTO, 0, len(cacc.perPlatform))
		var bestPlatform *string
		bestCombined := -1.0
		for _, platform := range sortedKeys(cacc.perPlatform) {
			acc := cacc.perPlatform[platform]
			avgCombined := 0.0
			if acc.posts > 0 {
				avgCombined = acc.combined / float64(acc.posts)
			}
			breakdown = append(breakdown, dto.UnifiedPlatformSummaryDTO{
				Platform:         platform,
				Posts:            acc.posts,
				TotalClicks:      acc.clicks,
				TotalEngagement:  round1(acc.engagement),
				AvgCombinedScore: round1(avgCombined),
			})
			if acc.combined > bestCombined {
				bestCombined = acc.combined
				p := platform
				bestPlatform = &p
			}

			if best, ok := bestPerPlatform[platform]; !ok || acc.combined > best.combined {
				bestPerPlatform[platform] = platformBest{concept: conceptKey, combined: acc.combined}
			}
		}

		concepts = append(concepts, dto.UnifiedConceptSummaryDTO{
			ConceptKey:      conceptKey,
			Posts:           cacc.posts,
			TotalClicks:     cacc.clicks,
			TotalEngagement: round1(cacc.engagement),
			CombinedScore:   round1(cacc.combined),
			BestPlatform:    bestPlatform,
			Platforms:       breakdown,
		})
	}

	// Highest total combined score first; equal scores keep key order
	sort.SliceStable(concepts, func(i, j int) bool {
		return concepts[i].CombinedScore > concepts[j].CombinedScore
	})

	bestConceptPerPlatform := make(map[string]string, len(bestPerPlatform))
	for platform, best := range bestPerPlatform {
		bestConceptPerPlatform[platform] = best.concept
	}
	return concepts, bestConceptPerPlatform
}
