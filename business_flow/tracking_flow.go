package businessflow

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/amirphl/Kusanagi/app/services"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"gorm.io/gorm"
)

// TrackingOutcome classifies how a click was handled. Every outcome still
// ends in a redirect; the outcome only decides whether the click counted.
type TrackingOutcome int

const (
	OutcomeCounted TrackingOutcome = iota
	OutcomeBot
	OutcomeRateLimited
	OutcomeUnknownLink
	OutcomeGracePeriod
	OutcomeInternalError
)

// String returns the outcome label used in logs and metrics.
func (o TrackingOutcome) String() string {
	switch o {
	case OutcomeCounted:
		return "counted"
	case OutcomeBot:
		return "bot"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeUnknownLink:
		return "unknown_link"
	case OutcomeGracePeriod:
		return "grace_period"
	default:
		return "internal_error"
	}
}

// TrackingResult is the decision for one click. Destination is always set.
type TrackingResult struct {
	Outcome     TrackingOutcome
	Destination string
	Clicks      int64
}

// TrackingFlow runs the click pipeline for /t/:trackingID hits. It never
// returns an error; any failure degrades to a redirect to the default
// destination so callers cannot distinguish filtered traffic from errors.
type TrackingFlow interface {
	Track(ctx context.Context, trackingID, platform, badgeType string, metadata *ClientMetadata) *TrackingResult
}

type TrackingFlowImpl struct {
	postRepo  repository.PostRepository
	clickRepo repository.ClickEventRepository
	statsRepo repository.StatsRepository
	detector  services.BotDetector
	limiter   services.ClickLimiter
	db        *gorm.DB
	cfg       config.TrackingConfig
}

func NewTrackingFlow(
	postRepo repository.PostRepository,
	clickRepo repository.ClickEventRepository,
	statsRepo repository.StatsRepository,
	detector services.BotDetector,
	limiter services.ClickLimiter,
	db *gorm.DB,
	cfg config.TrackingConfig,
) TrackingFlow {
	return &TrackingFlowImpl{
		postRepo:  postRepo,
		clickRepo: clickRepo,
		statsRepo: statsRepo,
		detector:  detector,
		limiter:   limiter,
		db:        db,
		cfg:       cfg,
	}
}

func (f *TrackingFlowImpl) defaultResult(outcome TrackingOutcome) *TrackingResult {
	return &TrackingResult{
		Outcome:     outcome,
		Destination: f.cfg.DefaultDestination,
	}
}

func (f *TrackingFlowImpl) countBot(ctx context.Context) {
	if err := f.statsRepo.IncrementBotsBlocked(ctx); err != nil {
		log.Printf("tracking: failed to increment bot counter: %v", err)
	}
}

func (f *TrackingFlowImpl) Track(ctx context.Context, trackingID, platform, badgeType string, metadata *ClientMetadata) *TrackingResult {
	now := utils.UTCNow()

	if f.detector.IsBot(metadata.UserAgent) {
		f.countBot(ctx)
		return f.defaultResult(OutcomeBot)
	}

	if !f.limiter.Allow(metadata.IPAddress, trackingID, now) {
		return f.defaultResult(OutcomeRateLimited)
	}

	post, err := f.postRepo.ByTrackingID(ctx, trackingID)
	if err != nil {
		log.Printf("tracking: post lookup failed for %s: %v", trackingID, err)
		return f.defaultResult(OutcomeInternalError)
	}
	if post == nil || !post.Confirmed {
		return f.defaultResult(OutcomeUnknownLink)
	}

	// Clicks inside the preview grace window right after confirmation are
	// the poster checking their own link. They count as bot traffic.
	if post.ConfirmedAt != nil && now.Sub(*post.ConfirmedAt) < f.cfg.GracePeriod {
		f.countBot(ctx)
		return f.defaultResult(OutcomeGracePeriod)
	}

	// The event keeps the hit-time parameters, not the post's own fields;
	// the two are allowed to disagree.
	if platform == "" {
		platform = utils.UnknownLabel
	}
	if badgeType == "" {
		badgeType = utils.UnknownLabel
	}

	var clicks int64
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var txErr error
		clicks, txErr = f.postRepo.IncrementClicks(txCtx, trackingID, now)
		if txErr != nil {
			return txErr
		}

		event := &models.ClickEvent{
			TrackingID: trackingID,
			ClickedAt:  now,
			Platform:   platform,
			BadgeType:  badgeType,
			IP:         utils.Truncate(metadata.IPAddress, utils.ClickIPMaxLen),
			UserAgent:  utils.Truncate(metadata.UserAgent, utils.ClickUserAgentMaxLen),
			IsHuman:    true,
			ConceptKey: post.ConceptKey,
		}
		return f.clickRepo.Save(txCtx, event)
	})
	if err != nil {
		log.Printf("tracking: failed to record click for %s: %v", trackingID, err)
		return f.defaultResult(OutcomeInternalError)
	}

	return &TrackingResult{
		Outcome:     OutcomeCounted,
		Destination: f.destinationFor(post),
		Clicks:      clicks,
	}
}

// destinationFor appends the referral code for counted clicks so the landing
// page can attribute the signup.
func (f *TrackingFlowImpl) destinationFor(post *models.Post) string {
	if post.ReferralCode == nil || *post.ReferralCode == "" {
		return f.cfg.DefaultDestination
	}
	return fmt.Sprintf("%s?ref=%s", f.cfg.DefaultDestination, url.QueryEscape(*post.ReferralCode))
}
