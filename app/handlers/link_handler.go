package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// LinkHandlerInterface defines endpoints for registering and confirming tracked posts
type LinkHandlerInterface interface {
	Create(c fiber.Ctx) error
	Confirm(c fiber.Ctx) error
	UpdatePost(c fiber.Ctx) error
}

type LinkHandler struct {
	flow      businessflow.LinkFlow
	validator *validator.Validate
}

func NewLinkHandler(flow businessflow.LinkFlow) LinkHandlerInterface {
	return &LinkHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *LinkHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, code string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *LinkHandler) validationDetails(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(ve))
	for _, fe := range ve {
		details = append(details, getValidationErrorMessage(fe))
	}
	return details
}

// Create registers a post and returns its tracking link
func (h *LinkHandler) Create(c fiber.Ctx) error {
	var req dto.CreateLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", h.validationDetails(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	res, err := h.flow.Create(h.createRequestContext(c, "/api/links"), &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsInvalidReferralCode(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Referral code must be a valid UUID", "INVALID_REFERRAL_CODE", nil)
		case businessflow.IsReferralCodeNeedsUser(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Referral code requires nonai_user_id", "REFERRAL_CODE_NEEDS_USER", nil)
		case businessflow.IsTrackingIDExhausted(err):
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Could not allocate a tracking id", "TRACKING_ID_EXHAUSTED", nil)
		}
		log.Println("Create tracked post failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to register post", "POST_CREATE_FAILED", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.APIResponse{Success: true, Message: "Tracking link created", Data: res})
}

// Confirm marks a post as published and starts its grace window
func (h *LinkHandler) Confirm(c fiber.Ctx) error {
	trackingID := c.Params("trackingID")

	var req dto.ConfirmLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", h.validationDetails(err))
	}

	res, err := h.flow.Confirm(h.createRequestContext(c, "/api/links/:trackingID/confirm"), trackingID, &req)
	if err != nil {
		switch {
		case businessflow.IsPostNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		case businessflow.IsTrackingIDRequired(err), businessflow.IsPostURLRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("Confirm tracked post failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to confirm post", "POST_CONFIRM_FAILED", nil)
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Post confirmed", Data: res})
}

// UpdatePost updates descriptive fields on a tracked post
func (h *LinkHandler) UpdatePost(c fiber.Ctx) error {
	var req dto.UpdatePostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", h.validationDetails(err))
	}

	res, err := h.flow.UpdatePost(h.createRequestContext(c, "/api/update-post"), &req)
	if err != nil {
		switch {
		case businessflow.IsPostNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		case businessflow.IsPostUpdateRequired(err), businessflow.IsTrackingIDRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("Update tracked post failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update post", "POST_UPDATE_FAILED", nil)
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Post updated", Data: res})
}

func (h *LinkHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *LinkHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
