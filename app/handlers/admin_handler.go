package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/app/middleware"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/gofiber/fiber/v3"
)

// AdminHandlerInterface defines operational endpoints
type AdminHandlerInterface interface {
	SyncReferrals(c fiber.Ctx) error
	Reset(c fiber.Ctx) error
	ExportAnalytics(c fiber.Ctx) error
	ExportReferrals(c fiber.Ctx) error
	Health(c fiber.Ctx) error
}

type AdminHandler struct {
	adminFlow    businessflow.AdminFlow
	referralFlow businessflow.ReferralFlow
}

func NewAdminHandler(adminFlow businessflow.AdminFlow, referralFlow businessflow.ReferralFlow) AdminHandlerInterface {
	return &AdminHandler{
		adminFlow:    adminFlow,
		referralFlow: referralFlow,
	}
}

func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, code string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

// SyncReferrals pulls lead and conversion counts from the platform API
func (h *AdminHandler) SyncReferrals(c fiber.Ctx) error {
	res, err := h.referralFlow.Sync(h.createRequestContextWithTimeout(c, "/api/admin/sync-referrals", 5*time.Minute))
	if err != nil {
		middleware.RecordReferralSync("error")
		log.Println("Referral sync failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Referral sync failed", "REFERRAL_SYNC_FAILED", nil)
	}
	middleware.RecordReferralSync("ok")
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Referral sync complete", Data: res})
}

// Reset wipes all tracking data
func (h *AdminHandler) Reset(c fiber.Ctx) error {
	res, err := h.adminFlow.Reset(h.createRequestContextWithTimeout(c, "/api/admin/reset", 60*time.Second))
	if err != nil {
		log.Println("Reset failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reset tracking data", "RESET_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Tracking data reset", Data: res})
}

func (h *AdminHandler) export(c fiber.Ctx, endpoint string, exporter func(context.Context, string) (string, []byte, error)) error {
	format := c.Query("format", "xlsx")
	if format != "xlsx" && format != "csv" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "format must be xlsx or csv", "VALIDATION_ERROR", nil)
	}

	filename, data, err := exporter(h.createRequestContextWithTimeout(c, endpoint, 60*time.Second), format)
	if err != nil {
		log.Println("Export failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate export", "EXPORT_FAILED", nil)
	}

	if format == "csv" {
		c.Set("Content-Type", "text/csv; charset=utf-8")
	} else {
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// ExportAnalytics downloads all tracked posts as Excel or CSV
func (h *AdminHandler) ExportAnalytics(c fiber.Ctx) error {
	return h.export(c, "/api/admin/export/analytics", h.adminFlow.ExportAnalytics)
}

// ExportReferrals downloads the referral funnel as Excel or CSV
func (h *AdminHandler) ExportReferrals(c fiber.Ctx) error {
	return h.export(c, "/api/admin/export/referrals", h.adminFlow.ExportReferrals)
}

// Health reports service, database and cache status
func (h *AdminHandler) Health(c fiber.Ctx) error {
	res, err := h.adminFlow.Health(h.createRequestContext(c, "/health"))
	if err != nil {
		log.Println("Health check failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Health check failed", "HEALTH_FAILED", nil)
	}
	status := fiber.StatusOK
	if res.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(dto.APIResponse{Success: res.Status == "healthy", Message: "Service health", Data: res})
}

func (h *AdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *AdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
