package businessflow

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/google/uuid"
)

// LinkFlow registers tracked posts and manages their lifecycle up to
// confirmation. Public flow, no authentication required.
type LinkFlow interface {
	Create(ctx context.Context, req *dto.CreateLinkRequest, metadata *ClientMetadata) (*dto.CreateLinkResponse, error)
	Confirm(ctx context.Context, trackingID string, req *dto.ConfirmLinkRequest) (*dto.PostDTO, error)
	UpdatePost(ctx context.Context, req *dto.UpdatePostRequest) (*dto.PostDTO, error)
}

type LinkFlowImpl struct {
	postRepo repository.PostRepository
	cfg      config.TrackingConfig
}

func NewLinkFlow(postRepo repository.PostRepository, cfg config.TrackingConfig) LinkFlow {
	return &LinkFlowImpl{
		postRepo: postRepo,
		cfg:      cfg,
	}
}

const trackingIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomTrackingID draws length characters from the base62 alphabet.
func randomTrackingID(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(trackingIDAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw random tracking id char: %w", err)
		}
		sb.WriteByte(trackingIDAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// generateUniqueTrackingID retries on collision and grows the id by one
// character after every exhausted attempt budget, up to the hard cap.
func (f *LinkFlowImpl) generateUniqueTrackingID(ctx context.Context) (string, error) {
	for length := f.cfg.IDLength; length <= f.cfg.IDMaxLength; length++ {
		for attempt := 0; attempt < f.cfg.IDMaxAttempts; attempt++ {
			candidate, err := randomTrackingID(length)
			if err != nil {
				return "", err
			}
			exists, err := f.postRepo.Exists(ctx, models.PostFilter{TrackingID: &candidate})
			if err != nil {
				return "", fmt.Errorf("failed to check tracking id uniqueness: %w", err)
			}
			if !exists {
				return candidate, nil
			}
		}
	}
	return "", ErrTrackingIDExhausted
}

func (f *LinkFlowImpl) Create(ctx context.Context, req *dto.CreateLinkRequest, metadata *ClientMetadata) (*dto.CreateLinkResponse, error) {
	if req.ReferralCode != nil && *req.ReferralCode != "" {
		if _, err := uuid.Parse(*req.ReferralCode); err != nil {
			return nil, ErrInvalidReferralCode
		}
		if req.NonaiUserID == nil {
			return nil, ErrReferralCodeNeedsUser
		}
	}

	trackingID, err := f.generateUniqueTrackingID(ctx)
	if err != nil {
		if IsTrackingIDExhausted(err) {
			return nil, err
		}
		return nil, NewBusinessError("TRACKING_ID_GENERATION_FAILED", "Failed to generate tracking id", err)
	}

	post := &models.Post{
		TrackingID:     trackingID,
		Username:       DefaultUsername,
		BadgeType:      DefaultBadgeType,
		Platform:       DefaultPlatform,
		ConceptKey:     req.ConceptKey,
		AyrsharePostID: req.AyrsharePostID,
		SocialPostID:   req.SocialPostID,
		NonaiUserID:    req.NonaiUserID,
		CreatedAt:      utils.UTCNow(),
	}
	if req.Username != "" {
		post.Username = req.Username
	}
	if req.BadgeType != "" {
		post.BadgeType = req.BadgeType
	}
	if req.Platform != "" {
		post.Platform = req.Platform
	}
	if req.ReferralCode != nil && *req.ReferralCode != "" {
		post.ReferralCode = req.ReferralCode
	}

	if err := f.postRepo.Save(ctx, post); err != nil {
		return nil, NewBusinessError("POST_CREATE_FAILED", "Failed to register tracked post", err)
	}

	return &dto.CreateLinkResponse{
		TrackingID:  trackingID,
		TrackingURL: fmt.Sprintf("%s/t/%s", strings.TrimRight(f.cfg.PublicURL, "/"), trackingID),
	}, nil
}

func (f *LinkFlowImpl) Confirm(ctx context.Context, trackingID string, req *dto.ConfirmLinkRequest) (*dto.PostDTO, error) {
	if trackingID == "" {
		return nil, ErrTrackingIDRequired
	}
	if req.PostURL == "" {
		return nil, ErrPostURLRequired
	}

	platform := req.Platform
	if platform == "" {
		platform = DefaultPlatform
	}

	updated, err := f.postRepo.Confirm(ctx, trackingID, req.PostURL, platform, req.Username, req.AyrsharePostID, req.SocialPostID, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError("POST_CONFIRM_FAILED", "Failed to confirm tracked post", err)
	}
	if !updated {
		return nil, ErrPostNotFound
	}

	post, err := f.postRepo.ByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, NewBusinessError("POST_LOOKUP_FAILED", "Failed to load tracked post", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	result := ToPostDTO(*post)
	return &result, nil
}

func (f *LinkFlowImpl) UpdatePost(ctx context.Context, req *dto.UpdatePostRequest) (*dto.PostDTO, error) {
	if req.TrackingID == "" {
		return nil, ErrTrackingIDRequired
	}
	if req.PostURL == nil && req.Username == nil {
		return nil, ErrPostUpdateRequired
	}

	updated, err := f.postRepo.UpdateMetadata(ctx, req.TrackingID, req.PostURL, req.Username)
	if err != nil {
		return nil, NewBusinessError("POST_UPDATE_FAILED", "Failed to update tracked post", err)
	}
	if !updated {
		return nil, ErrPostNotFound
	}

	post, err := f.postRepo.ByTrackingID(ctx, req.TrackingID)
	if err != nil {
		return nil, NewBusinessError("POST_LOOKUP_FAILED", "Failed to load tracked post", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	result := ToPostDTO(*post)
	return &result, nil
}
