package dto

// CreateLinkRequest defines input for registering a new tracked post
type CreateLinkRequest struct {
	ConceptKey     *string `json:"concept_key,omitempty" validate:"omitempty,max=100"`
	Platform       string  `json:"platform" validate:"omitempty,max=50"`
	BadgeType      string  `json:"badge_type" validate:"omitempty,max=50"`
	Username       string  `json:"username" validate:"omitempty,max=255"`
	NonaiUserID    *int64  `json:"nonai_user_id,omitempty" validate:"omitempty,min=1"`
	ReferralCode   *string `json:"referral_code,omitempty" validate:"omitempty,max=64"`
	AyrsharePostID *string `json:"ayrshare_post_id,omitempty"`
	SocialPostID   *string `json:"social_post_id,omitempty"`
}

// CreateLinkResponse returns the generated tracking link
type CreateLinkResponse struct {
	TrackingID  string `json:"tracking_id"`
	TrackingURL string `json:"tracking_url"`
}

// ConfirmLinkRequest defines input for marking a post as published
type ConfirmLinkRequest struct {
	PostURL        string  `json:"post_url" validate:"required,max=2048"`
	Platform       string  `json:"platform" validate:"omitempty,max=50"`
	Username       *string `json:"username,omitempty" validate:"omitempty,max=255"`
	AyrsharePostID *string `json:"ayrshare_post_id,omitempty"`
	SocialPostID   *string `json:"social_post_id,omitempty"`
}

// UpdatePostRequest defines input for updating descriptive post fields
type UpdatePostRequest struct {
	TrackingID string  `json:"tracking_id" validate:"required,max=12"`
	PostURL    *string `json:"post_url,omitempty" validate:"omitempty,max=2048"`
	Username   *string `json:"username,omitempty" validate:"omitempty,max=255"`
}

// PostDTO is the API representation of a tracked post
type PostDTO struct {
	TrackingID          string  `json:"tracking_id"`
	Username            string  `json:"username"`
	BadgeType           string  `json:"badge_type"`
	Platform            string  `json:"platform"`
	ConceptKey          *string `json:"concept_key,omitempty"`
	PostURL             *string `json:"post_url,omitempty"`
	AyrsharePostID      *string `json:"ayrshare_post_id,omitempty"`
	SocialPostID        *string `json:"social_post_id,omitempty"`
	NonaiUserID         *int64  `json:"nonai_user_id,omitempty"`
	ReferralCode        *string `json:"referral_code,omitempty"`
	Clicks              int64   `json:"clicks"`
	Confirmed           bool    `json:"confirmed"`
	FirstClick          *string `json:"first_click,omitempty"`
	LastClick           *string `json:"last_click,omitempty"`
	ReferralLeads       *int64  `json:"referral_leads,omitempty"`
	ReferralConversions *int64  `json:"referral_conversions,omitempty"`
	ConfirmedAt         *string `json:"confirmed_at,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

// ListPostsRequest defines query filters for listing tracked posts
type ListPostsRequest struct {
	Platform  *string `query:"platform" validate:"omitempty,max=50"`
	Confirmed *bool   `query:"confirmed"`
	Limit     int     `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset    int     `query:"offset" validate:"omitempty,min=0"`
}

// ListPostsResponse returns a page of tracked posts
type ListPostsResponse struct {
	Posts []PostDTO `json:"posts"`
	Total int64     `json:"total"`
}
