// Package testing provides test utilities and database setup for testing the click tracker
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestPost creates an unconfirmed tracked post with a random tracking id
func (tf *TestFixtures) CreateTestPost(platform string) (*models.Post, error) {
	post := &models.Post{
		TrackingID: fmt.Sprintf("tst%03d", rand.Intn(1000)),
		Username:   "testuser",
		BadgeType:  "gold",
		Platform:   platform,
		CreatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create test post: %w", err)
	}
	return post, nil
}

// CreateConfirmedPost creates a post confirmed at the given instant
func (tf *TestFixtures) CreateConfirmedPost(trackingID, platform string, confirmedAt time.Time) (*models.Post, error) {
	postURL := fmt.Sprintf("https://example.com/%s", trackingID)
	post := &models.Post{
		TrackingID:  trackingID,
		Username:    "testuser",
		BadgeType:   "gold",
		Platform:    platform,
		PostURL:     &postURL,
		Confirmed:   true,
		ConfirmedAt: &confirmedAt,
		CreatedAt:   confirmedAt,
	}

	if err := tf.DB.DB.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create confirmed post: %w", err)
	}
	return post, nil
}

// CreateReferralPost creates a confirmed post carrying referral attribution
func (tf *TestFixtures) CreateReferralPost(trackingID, referralCode string, userID, clicks, leads, conversions int64) (*models.Post, error) {
	confirmedAt := utils.UTCNow().Add(-24 * time.Hour)
	postURL := fmt.Sprintf("https://example.com/%s", trackingID)
	post := &models.Post{
		TrackingID:          trackingID,
		Username:            "testuser",
		BadgeType:           "gold",
		Platform:            "facebook",
		PostURL:             &postURL,
		NonaiUserID:         &userID,
		ReferralCode:        &referralCode,
		Clicks:              clicks,
		ReferralLeads:       &leads,
		ReferralConversions: &conversions,
		Confirmed:           true,
		ConfirmedAt:         &confirmedAt,
		CreatedAt:           confirmedAt,
	}

	if err := tf.DB.DB.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create referral post: %w", err)
	}
	return post, nil
}

// CreateTestClickEvent records one counted click for a post
func (tf *TestFixtures) CreateTestClickEvent(trackingID, platform string, clickedAt time.Time) (*models.ClickEvent, error) {
	event := &models.ClickEvent{
		TrackingID: trackingID,
		ClickedAt:  clickedAt,
		Platform:   platform,
		BadgeType:  "gold",
		IP:         "127.0.0.1",
		UserAgent:  "Mozilla/5.0 (X11; Linux x86_64)",
		IsHuman:    true,
	}

	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create test click event: %w", err)
	}
	return event, nil
}
