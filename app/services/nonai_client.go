package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amirphl/Kusanagi/config"
)

// ReferralCodeLeads is the per-code lead count reported by the NoNAI API.
type ReferralCodeLeads struct {
	TotalLeads int64  `json:"total_leads"`
	Platform   string `json:"platform"`
}

// UserReferral is one row of the paginated user referral listing.
type UserReferral struct {
	RefererUserID    int64 `json:"referer_user"`
	TotalConversions int64 `json:"total_conversions"`
}

// NonaiClient talks to the NoNAI platform API for referral funnel data.
type NonaiClient interface {
	ReferralCodeLeads(ctx context.Context, referralCode string) (*ReferralCodeLeads, error)
	AllUserReferrals(ctx context.Context) ([]UserReferral, error)
}

type referralLeadsEnvelope struct {
	Success bool              `json:"success"`
	Data    ReferralCodeLeads `json:"data"`
}

type userReferralsEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Results []UserReferral `json:"results"`
		Next    *string        `json:"next"`
	} `json:"data"`
}

type httpNonaiClient struct {
	cfg    config.ReferralConfig
	client *http.Client
}

func NewNonaiClient(cfg config.ReferralConfig) NonaiClient {
	return &httpNonaiClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *httpNonaiClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("nonai api http status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ReferralCodeLeads fetches the lead count attributed to one referral code.
func (c *httpNonaiClient) ReferralCodeLeads(ctx context.Context, referralCode string) (*ReferralCodeLeads, error) {
	u := fmt.Sprintf("%s/referal-code-leads/%s", c.cfg.APIBase, url.PathEscape(referralCode))

	var envelope referralLeadsEnvelope
	if err := c.get(ctx, u, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("nonai api reported failure for referral code %s", referralCode)
	}
	return &envelope.Data, nil
}

// AllUserReferrals walks the paginated user referral listing and returns
// every row. Pagination follows the data.next link until it is empty.
func (c *httpNonaiClient) AllUserReferrals(ctx context.Context) ([]UserReferral, error) {
	next := c.cfg.APIBase + "/user-referrals"

	var all []UserReferral
	for next != "" {
		var envelope userReferralsEnvelope
		if err := c.get(ctx, next, &envelope); err != nil {
			return nil, err
		}
		if !envelope.Success {
			return nil, fmt.Errorf("nonai api reported failure listing user referrals")
		}
		all = append(all, envelope.Data.Results...)

		next = ""
		if envelope.Data.Next != nil {
			next = *envelope.Data.Next
		}
	}
	return all, nil
}
