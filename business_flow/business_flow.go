// Package businessflow contains the business logic for the application.
package businessflow

import (
	"math"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/utils"
)

const RequestIDKey = "X-Request-ID"

// Fallback values applied when a link registration omits descriptive fields.
const (
	DefaultPlatform  = "facebook"
	DefaultBadgeType = "gold"
	DefaultUsername  = "unknown"
)

// ClientMetadata holds all client-related information for audit logging and click attribution
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToPostDTO converts a post model to PostDTO for API responses
func ToPostDTO(post models.Post) dto.PostDTO {
	return dto.PostDTO{
		TrackingID:          post.TrackingID,
		Username:            post.Username,
		BadgeType:           post.BadgeType,
		Platform:            post.Platform,
		ConceptKey:          post.ConceptKey,
		PostURL:             post.PostURL,
		AyrsharePostID:      post.AyrsharePostID,
		SocialPostID:        post.SocialPostID,
		NonaiUserID:         post.NonaiUserID,
		ReferralCode:        post.ReferralCode,
		Clicks:              post.Clicks,
		Confirmed:           post.Confirmed,
		FirstClick:          utils.FormatRFC3339Ptr(post.FirstClick),
		LastClick:           utils.FormatRFC3339Ptr(post.LastClick),
		ReferralLeads:       post.ReferralLeads,
		ReferralConversions: post.ReferralConversions,
		ConfirmedAt:         utils.FormatRFC3339Ptr(post.ConfirmedAt),
		CreatedAt:           post.CreatedAt.Format(time.RFC3339),
	}
}

// round1 rounds to one decimal place, matching the precision the funnel
// report promises.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
