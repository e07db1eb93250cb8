package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AnalyticsHandlerInterface defines the reporting endpoints
type AnalyticsHandlerInterface interface {
	Analytics(c fiber.Ctx) error
	ConceptClicks(c fiber.Ctx) error
	UnifiedReport(c fiber.Ctx) error
	ReferralReport(c fiber.Ctx) error
	Posts(c fiber.Ctx) error
	RecentClicks(c fiber.Ctx) error
	BadgeStats(c fiber.Ctx) error
}

type AnalyticsHandler struct {
	analyticsFlow businessflow.AnalyticsFlow
	unifiedFlow   businessflow.UnifiedReportFlow
	referralFlow  businessflow.ReferralFlow
	validator     *validator.Validate
}

func NewAnalyticsHandler(
	analyticsFlow businessflow.AnalyticsFlow,
	unifiedFlow businessflow.UnifiedReportFlow,
	referralFlow businessflow.ReferralFlow,
) AnalyticsHandlerInterface {
	return &AnalyticsHandler{
		analyticsFlow: analyticsFlow,
		unifiedFlow:   unifiedFlow,
		referralFlow:  referralFlow,
		validator:     validator.New(),
	}
}

func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, code string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

// Analytics returns the aggregate click dashboard
func (h *AnalyticsHandler) Analytics(c fiber.Ctx) error {
	res, err := h.analyticsFlow.Analytics(h.createRequestContext(c, "/api/reports/analytics"))
	if err != nil {
		log.Println("Analytics report failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build analytics report", "ANALYTICS_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Analytics report", Data: res})
}

// ConceptClicks returns the per-concept performance breakdown
func (h *AnalyticsHandler) ConceptClicks(c fiber.Ctx) error {
	res, err := h.analyticsFlow.ConceptClicks(h.createRequestContext(c, "/api/reports/concept-clicks"))
	if err != nil {
		log.Println("Concept clicks report failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build concept report", "CONCEPT_REPORT_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Concept clicks report", Data: res})
}

// UnifiedReport merges link clicks with engagement analytics
func (h *AnalyticsHandler) UnifiedReport(c fiber.Ctx) error {
	res, err := h.unifiedFlow.Report(h.createRequestContextWithTimeout(c, "/api/reports/unified", 30*time.Second))
	if err != nil {
		log.Println("Unified report failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build unified report", "UNIFIED_REPORT_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Unified report", Data: res})
}

// ReferralReport returns the referral funnel report
func (h *AnalyticsHandler) ReferralReport(c fiber.Ctx) error {
	res, err := h.referralFlow.Report(h.createRequestContext(c, "/api/reports/referrals"))
	if err != nil {
		log.Println("Referral report failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build referral report", "REFERRAL_REPORT_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Referral report", Data: res})
}

// Posts lists tracked posts with optional filters
func (h *AnalyticsHandler) Posts(c fiber.Ctx) error {
	var req dto.ListPostsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	res, err := h.analyticsFlow.Posts(h.createRequestContext(c, "/api/posts"), &req)
	if err != nil {
		log.Println("List tracked posts failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list posts", "POST_LIST_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Tracked posts", Data: res})
}

// RecentClicks returns the newest counted clicks
func (h *AnalyticsHandler) RecentClicks(c fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "limit must be a number", "INVALID_REQUEST", nil)
		}
		limit = parsed
	}

	res, err := h.analyticsFlow.RecentClicks(h.createRequestContext(c, "/api/recent-clicks"), limit)
	if err != nil {
		if businessflow.IsInvalidReportLimit(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("Recent clicks failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load recent clicks", "RECENT_CLICKS_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Recent clicks", Data: res})
}

// BadgeStats returns the public badge widget payload
func (h *AnalyticsHandler) BadgeStats(c fiber.Ctx) error {
	res, err := h.analyticsFlow.BadgeStats(h.createRequestContext(c, "/api/badge-stats"))
	if err != nil {
		log.Println("Badge stats failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load badge stats", "BADGE_STATS_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Badge stats", Data: res})
}

func (h *AnalyticsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *AnalyticsHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
