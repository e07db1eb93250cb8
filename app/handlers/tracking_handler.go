package handlers

import (
	"context"
	"time"

	"github.com/amirphl/Kusanagi/app/middleware"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/gofiber/fiber/v3"
)

// TrackingHandlerInterface defines the public redirect endpoint
type TrackingHandlerInterface interface {
	Track(c fiber.Ctx) error
}

type TrackingHandler struct {
	flow businessflow.TrackingFlow
}

func NewTrackingHandler(flow businessflow.TrackingFlow) TrackingHandlerInterface {
	return &TrackingHandler{flow: flow}
}

// Track classifies the hit and redirects. Every request gets a 302 to a
// valid destination, whatever the pipeline decided.
func (h *TrackingHandler) Track(c fiber.Ctx) error {
	trackingID := c.Params("trackingID")
	// Hit-time metadata rides on short query params to keep shared URLs small
	platform := c.Query("p", utils.UnknownLabel)
	badgeType := c.Query("b", utils.UnknownLabel)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result := h.flow.Track(h.createRequestContext(c, "/t/"+trackingID), trackingID, platform, badgeType, metadata)
	middleware.RecordClickOutcome(result.Outcome.String())

	c.Set("Cache-Control", "no-store")
	c.Redirect().Status(fiber.StatusFound).To(result.Destination)
	return nil
}

func (h *TrackingHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *TrackingHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
