package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/app/services"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// AdminFlow covers operational endpoints: reset, health and data exports.
type AdminFlow interface {
	Reset(ctx context.Context) (*dto.ResetResponse, error)
	Health(ctx context.Context) (*dto.HealthResponse, error)
	ExportAnalytics(ctx context.Context, format string) (string, []byte, error)
	ExportReferrals(ctx context.Context, format string) (string, []byte, error)
}

type AdminFlowImpl struct {
	postRepo  repository.PostRepository
	clickRepo repository.ClickEventRepository
	statsRepo repository.StatsRepository
	limiter   services.ClickLimiter
	db        *gorm.DB
	rc        *redis.Client
	version   string
}

func NewAdminFlow(
	postRepo repository.PostRepository,
	clickRepo repository.ClickEventRepository,
	statsRepo repository.StatsRepository,
	limiter services.ClickLimiter,
	db *gorm.DB,
	rc *redis.Client,
	deployCfg config.DeploymentConfig,
) AdminFlow {
	return &AdminFlowImpl{
		postRepo:  postRepo,
		clickRepo: clickRepo,
		statsRepo: statsRepo,
		limiter:   limiter,
		db:        db,
		rc:        rc,
		version:   deployCfg.Version,
	}
}

// Reset wipes all tracking data. Click events go first so the post delete
// never races their foreign keys; the whole wipe is one transaction.
func (f *AdminFlowImpl) Reset(ctx context.Context) (*dto.ResetResponse, error) {
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.clickRepo.DeleteAll(txCtx); err != nil {
			return err
		}
		if err := f.postRepo.DeleteAll(txCtx); err != nil {
			return err
		}
		return f.statsRepo.Reset(txCtx)
	})
	if err != nil {
		return nil, NewBusinessError("RESET_FAILED", "Failed to reset tracking data", err)
	}

	f.limiter.Reset()

	return &dto.ResetResponse{
		PostsDeleted:  true,
		ClicksDeleted: true,
		StatsReset:    true,
		LimiterReset:  true,
	}, nil
}

func (f *AdminFlowImpl) Health(ctx context.Context) (*dto.HealthResponse, error) {
	out := &dto.HealthResponse{
		Status:      "healthy",
		Database:    "up",
		Cache:       "disabled",
		LimiterSize: f.limiter.Size(),
		Version:     f.version,
	}

	confirmed, err := f.postRepo.Count(ctx, models.PostFilter{Confirmed: utils.ToPtr(true)})
	if err != nil {
		out.Status = "degraded"
		out.Database = "down"
		return out, nil
	}
	pending, err := f.postRepo.Count(ctx, models.PostFilter{Confirmed: utils.ToPtr(false)})
	if err != nil {
		out.Status = "degraded"
		out.Database = "down"
		return out, nil
	}
	totalClicks, err := f.postRepo.SumClicks(ctx, models.PostFilter{})
	if err != nil {
		out.Status = "degraded"
		out.Database = "down"
		return out, nil
	}
	botsBlocked, err := f.statsRepo.BotsBlocked(ctx)
	if err != nil {
		out.Status = "degraded"
		out.Database = "down"
		return out, nil
	}

	out.ConfirmedPosts = confirmed
	out.PendingPosts = pending
	out.TotalClicks = totalClicks
	out.BotsBlocked = botsBlocked

	if f.rc != nil {
		if err := f.rc.Ping(ctx).Err(); err != nil {
			out.Cache = "down"
			out.Status = "degraded"
		} else {
			out.Cache = "up"
		}
	}

	return out, nil
}

func analyticsExportRecord(r *models.Post) []string {
	conceptKey := ""
	if r.ConceptKey != nil {
		conceptKey = *r.ConceptKey
	}
	postURL := ""
	if r.PostURL != nil {
		postURL = *r.PostURL
	}
	firstClick := ""
	if r.FirstClick != nil {
		firstClick = r.FirstClick.UTC().Format(time.RFC3339)
	}
	lastClick := ""
	if r.LastClick != nil {
		lastClick = r.LastClick.UTC().Format(time.RFC3339)
	}
	confirmedAt := ""
	if r.ConfirmedAt != nil {
		confirmedAt = r.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.TrackingID,
		r.Username,
		r.Platform,
		r.BadgeType,
		conceptKey,
		postURL,
		strconv.FormatInt(r.Clicks, 10),
		strconv.FormatBool(r.Confirmed),
		firstClick,
		lastClick,
		confirmedAt,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

var analyticsExportHeader = []string{
	"tracking_id",
	"username",
	"platform",
	"badge_type",
	"concept_key",
	"post_url",
	"clicks",
	"confirmed",
	"first_click",
	"last_click",
	"confirmed_at",
	"created_at",
}

// ExportAnalytics dumps all tracked posts. The Excel variant groups posts
// into one sheet per platform; CSV is a flat file.
func (f *AdminFlowImpl) ExportAnalytics(ctx context.Context, format string) (string, []byte, error) {
	rows, err := f.postRepo.ByFilter(ctx, models.PostFilter{}, "platform ASC, clicks DESC, id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to fetch tracked posts", err)
	}

	if format == "csv" {
		buf := &bytes.Buffer{}
		w := csv.NewWriter(buf)
		if err := w.Write(analyticsExportHeader); err != nil {
			return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV header", err)
		}
		for _, r := range rows {
			if err := w.Write(analyticsExportRecord(r)); err != nil {
				return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV row", err)
			}
		}
		w.Flush()
		return "click_analytics.csv", buf.Bytes(), nil
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	byPlatform := make(map[string][]*models.Post)
	order := make([]string, 0)
	for _, r := range rows {
		platform := r.Platform
		if platform == "" {
			platform = utils.UnknownLabel
		}
		if _, ok := byPlatform[platform]; !ok {
			order = append(order, platform)
		}
		byPlatform[platform] = append(byPlatform[platform], r)
	}

	if len(order) == 0 {
		order = append(order, "posts")
	}

	usedNames := map[string]bool{}
	for i, platform := range order {
		baseName := sanitizeSheetName(platform)
		name := baseName
		idx := 1
		for usedNames[name] {
			idx++
			name = truncateSheetName(fmt.Sprintf("%s_%d", baseName, idx))
		}
		usedNames[name] = true
		if i == 0 {
			xl.SetSheetName(xl.GetSheetName(0), name)
		} else {
			_, _ = xl.NewSheet(name)
		}

		_ = xl.SetSheetRow(name, "A1", &analyticsExportHeader)
		for ri, r := range byPlatform[platform] {
			record := analyticsExportRecord(r)
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			_ = xl.SetSheetRow(name, cellRef, &record)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return "click_analytics.xlsx", buf.Bytes(), nil
}

var referralExportHeader = []string{
	"tracking_id",
	"username",
	"platform",
	"concept_key",
	"referral_code",
	"nonai_user_id",
	"clicks",
	"leads",
	"conversions",
	"funnel_score",
	"last_synced",
}

func referralExportRecord(r *models.Post) []string {
	conceptKey := ""
	if r.ConceptKey != nil {
		conceptKey = *r.ConceptKey
	}
	referralCode := ""
	if r.ReferralCode != nil {
		referralCode = *r.ReferralCode
	}
	userID := ""
	if r.NonaiUserID != nil {
		userID = strconv.FormatInt(*r.NonaiUserID, 10)
	}
	leads := int64(0)
	if r.ReferralLeads != nil {
		leads = *r.ReferralLeads
	}
	conversions := int64(0)
	if r.ReferralConversions != nil {
		conversions = *r.ReferralConversions
	}
	lastSynced := ""
	if r.ReferralLastSynced != nil {
		lastSynced = r.ReferralLastSynced.UTC().Format(time.RFC3339)
	}
	funnelScore := r.Clicks + leads*leadWeight + conversions*conversionWeight
	return []string{
		r.TrackingID,
		r.Username,
		r.Platform,
		conceptKey,
		referralCode,
		userID,
		strconv.FormatInt(r.Clicks, 10),
		strconv.FormatInt(leads, 10),
		strconv.FormatInt(conversions, 10),
		strconv.FormatInt(funnelScore, 10),
		lastSynced,
	}
}

// ExportReferrals dumps the referral funnel posts ordered by funnel score.
func (f *AdminFlowImpl) ExportReferrals(ctx context.Context, format string) (string, []byte, error) {
	rows, err := f.postRepo.ReferralPosts(ctx, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to fetch referral posts", err)
	}

	if format == "csv" {
		buf := &bytes.Buffer{}
		w := csv.NewWriter(buf)
		if err := w.Write(referralExportHeader); err != nil {
			return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV header", err)
		}
		for _, r := range rows {
			if err := w.Write(referralExportRecord(r)); err != nil {
				return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV row", err)
			}
		}
		w.Flush()
		return "referral_funnel.csv", buf.Bytes(), nil
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	name := "referrals"
	xl.SetSheetName(xl.GetSheetName(0), name)
	_ = xl.SetSheetRow(name, "A1", &referralExportHeader)
	for ri, r := range rows {
		record := referralExportRecord(r)
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(name, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return "referral_funnel.xlsx", buf.Bytes(), nil
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \\ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := replacer.Replace(name)
	return truncateSheetName(strings.TrimSpace(safe))
}

func truncateSheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	if name == "" {
		return "Sheet"
	}
	return name
}
