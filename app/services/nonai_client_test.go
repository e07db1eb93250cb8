package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNonaiClient(apiBase string) NonaiClient {
	return NewNonaiClient(config.ReferralConfig{
		APIBase: apiBase,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestReferralCodeLeads(t *testing.T) {
	t.Run("parses the envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/referal-code-leads/my-code", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"total_leads": 7, "platform": "instagram"},
			})
		}))
		defer server.Close()

		leads, err := newTestNonaiClient(server.URL).ReferralCodeLeads(context.Background(), "my-code")
		require.NoError(t, err)
		assert.Equal(t, int64(7), leads.TotalLeads)
		assert.Equal(t, "instagram", leads.Platform)
	})

	t.Run("errors on unsuccessful envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": false})
		}))
		defer server.Close()

		_, err := newTestNonaiClient(server.URL).ReferralCodeLeads(context.Background(), "my-code")
		assert.Error(t, err)
	})

	t.Run("errors on non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestNonaiClient(server.URL).ReferralCodeLeads(context.Background(), "my-code")
		assert.Error(t, err)
	})
}

func TestAllUserReferrals(t *testing.T) {
	t.Run("walks pagination via data.next", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.RequestURI() {
			case "/user-referrals":
				next := server.URL + "/user-referrals?page=2"
				json.NewEncoder(w).Encode(map[string]any{
					"success": true,
					"data": map[string]any{
						"results": []map[string]any{
							{"referer_user": 1, "total_conversions": 3},
							{"referer_user": 2, "total_conversions": 1},
						},
						"next": next,
					},
				})
			default:
				json.NewEncoder(w).Encode(map[string]any{
					"success": true,
					"data": map[string]any{
						"results": []map[string]any{
							{"referer_user": 3, "total_conversions": 9},
						},
						"next": nil,
					},
				})
			}
		}))
		defer server.Close()

		rows, err := newTestNonaiClient(server.URL).AllUserReferrals(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, int64(1), rows[0].RefererUserID)
		assert.Equal(t, int64(9), rows[2].TotalConversions)
	})

	t.Run("propagates mid-pagination failure", func(t *testing.T) {
		var server *httptest.Server
		calls := 0
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				next := server.URL + "/user-referrals?page=2"
				json.NewEncoder(w).Encode(map[string]any{
					"success": true,
					"data": map[string]any{
						"results": []map[string]any{{"referer_user": 1, "total_conversions": 3}},
						"next":    next,
					},
				})
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestNonaiClient(server.URL).AllUserReferrals(context.Background())
		assert.Error(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("empty listing returns no rows", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"success":true,"data":{"results":[],"next":null}}`)
		}))
		defer server.Close()

		rows, err := newTestNonaiClient(server.URL).AllUserReferrals(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
