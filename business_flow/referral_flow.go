package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/app/services"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
)

// Funnel weights: a lead is worth ten clicks, a conversion fifty.
const (
	leadWeight       = 10
	conversionWeight = 50
)

// ReferralFlow builds the referral funnel report and syncs lead and
// conversion counts from the NoNAI platform API.
type ReferralFlow interface {
	Report(ctx context.Context) (*dto.ReferralReportResponse, error)
	Sync(ctx context.Context) (*dto.SyncReferralsResponse, error)
}

type ReferralFlowImpl struct {
	postRepo repository.PostRepository
	client   services.NonaiClient
	cfg      config.ReferralConfig
}

func NewReferralFlow(postRepo repository.PostRepository, client services.NonaiClient, cfg config.ReferralConfig) ReferralFlow {
	return &ReferralFlowImpl{
		postRepo: postRepo,
		client:   client,
		cfg:      cfg,
	}
}

func toReferralGroupDTOs(rows []repository.ReferralGroupSummary) []dto.ReferralGroupDTO {
	out := make([]dto.ReferralGroupDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ReferralGroupDTO{
			NonaiUserID:      row.NonaiUserID,
			Username:         row.Username,
			ConceptKey:       row.ConceptKey,
			Platform:         row.Platform,
			TotalPosts:       row.TotalPosts,
			TotalClicks:      row.TotalClicks,
			TotalLeads:       row.TotalLeads,
			TotalConversions: row.TotalConversions,
			AvgClicks:        round1(row.AvgClicks),
			AvgLeads:         round1(row.AvgLeads),
		})
	}
	return out
}

func (f *ReferralFlowImpl) Report(ctx context.Context) (*dto.ReferralReportResponse, error) {
	rows, err := f.postRepo.ReferralPosts(ctx, 0)
	if err != nil {
		return nil, NewBusinessError("REFERRAL_REPORT_FAILED", "Failed to load referral posts", err)
	}

	posts := make([]dto.ReferralPostDTO, 0, len(rows))
	var totalClicks, totalLeads int64
	for _, row := range rows {
		leads := int64(0)
		if row.ReferralLeads != nil {
			leads = *row.ReferralLeads
		}
		conversions := int64(0)
		if row.ReferralConversions != nil {
			conversions = *row.ReferralConversions
		}
		referralCode := ""
		if row.ReferralCode != nil {
			referralCode = *row.ReferralCode
		}

		clickBase := row.Clicks
		if clickBase < 1 {
			clickBase = 1
		}
		leadBase := leads
		if leadBase < 1 {
			leadBase = 1
		}

		posts = append(posts, dto.ReferralPostDTO{
			TrackingID:      row.TrackingID,
			Username:        row.Username,
			Platform:        row.Platform,
			ConceptKey:      row.ConceptKey,
			ReferralCode:    referralCode,
			NonaiUserID:     row.NonaiUserID,
			Clicks:          row.Clicks,
			Leads:           leads,
			Conversions:     conversions,
			FunnelScore:     row.Clicks + leads*leadWeight + conversions*conversionWeight,
			LeadToClickRate: round1(float64(leads) / float64(clickBase) * 100),
			ConversionRate:  round1(float64(conversions) / float64(leadBase) * 100),
			LastSynced:      utils.FormatRFC3339Ptr(row.ReferralLastSynced),
		})

		totalClicks += row.Clicks
		totalLeads += leads
	}

	byUser, err := f.postRepo.ReferralSummaryByUser(ctx)
	if err != nil {
		return nil, NewBusinessError("REFERRAL_REPORT_FAILED", "Failed to roll up by user", err)
	}
	byConcept, err := f.postRepo.ReferralSummaryByConcept(ctx)
	if err != nil {
		return nil, NewBusinessError("REFERRAL_REPORT_FAILED", "Failed to roll up by concept", err)
	}
	byPlatform, err := f.postRepo.ReferralSummaryByPlatform(ctx)
	if err != nil {
		return nil, NewBusinessError("REFERRAL_REPORT_FAILED", "Failed to roll up by platform", err)
	}

	// Conversions live per user, so totaling them per post would count the
	// same user several times. The user rollup is the honest total.
	var totalConversions int64
	for _, row := range byUser {
		totalConversions += row.TotalConversions
	}

	return &dto.ReferralReportResponse{
		GeneratedAt:      utils.UTCNow().Format(time.RFC3339),
		TotalPosts:       int64(len(posts)),
		TotalClicks:      totalClicks,
		TotalLeads:       totalLeads,
		TotalConversions: totalConversions,
		Posts:            posts,
		ByUser:           toReferralGroupDTOs(byUser),
		ByConcept:        toReferralGroupDTOs(byConcept),
		ByPlatform:       toReferralGroupDTOs(byPlatform),
	}, nil
}

// Sync pulls lead counts per referral code and conversion counts per user
// from the platform API. A failing code is skipped, not fatal; the next
// sync run picks it up again.
func (f *ReferralFlowImpl) Sync(ctx context.Context) (*dto.SyncReferralsResponse, error) {
	codes, err := f.postRepo.DistinctReferralCodes(ctx)
	if err != nil {
		return nil, NewBusinessError("REFERRAL_SYNC_FAILED", "Failed to list referral codes", err)
	}

	out := &dto.SyncReferralsResponse{CodesTotal: int64(len(codes))}
	now := utils.UTCNow()

	for i, code := range codes {
		if i > 0 && f.cfg.SyncDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, NewBusinessError("REFERRAL_SYNC_FAILED", "Sync canceled", ctx.Err())
			case <-time.After(f.cfg.SyncDelay):
			}
		}

		leads, err := f.client.ReferralCodeLeads(ctx, code.ReferralCode)
		if err != nil {
			log.Printf("referral sync: skipping code %s: %v", code.ReferralCode, err)
			out.CodesSkipped++
			continue
		}

		updated, err := f.postRepo.UpdateReferralLeads(ctx, code.ReferralCode, leads.TotalLeads, now)
		if err != nil {
			log.Printf("referral sync: failed to store leads for code %s: %v", code.ReferralCode, err)
			out.CodesSkipped++
			continue
		}
		out.CodesSynced++
		out.LeadsUpdated += updated
	}

	referrals, err := f.client.AllUserReferrals(ctx)
	if err != nil {
		// Leads already synced are kept; conversions retry next run.
		log.Printf("referral sync: failed to list user referrals: %v", err)
		return out, nil
	}
	for _, ref := range referrals {
		updated, err := f.postRepo.UpdateReferralConversions(ctx, ref.RefererUserID, ref.TotalConversions, now)
		if err != nil {
			log.Printf("referral sync: failed to store conversions for user %d: %v", ref.RefererUserID, err)
			continue
		}
		out.ConversionsUpdated += updated
	}

	return out, nil
}
