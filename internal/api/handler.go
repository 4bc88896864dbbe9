package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/greencycle/greencycle-server/internal/models"
	"github.com/greencycle/greencycle-server/internal/service"
)

// Handler holds the HTTP handlers for the API
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
	}

	// Authenticated routes
	authed := api.Group("", AuthMiddleware())
	{
		authed.POST("/reports", h.SubmitReport)
		authed.GET("/reports", h.GetUserReports)
		authed.GET("/reports/recent", h.GetRecentReports)

		authed.GET("/tokens", h.GetTokenSummary)
		authed.GET("/rewards", h.ListRewards)
		authed.POST("/rewards/:id/redeem", h.RedeemReward)
		authed.GET("/leaderboard", h.GetLeaderboard)

		authed.GET("/events", h.ListEvents)
		authed.GET("/admin/me", h.AdminStatus)
	}

	// Admin-gated routes
	admin := api.Group("/admin", AuthMiddleware(), AdminMiddleware(h.svc))
	{
		admin.PATCH("/reports/:id/status", h.UpdateReportStatus)
		admin.POST("/rewards", h.CreateReward)
		admin.POST("/events", h.CreateEvent)
		admin.PATCH("/events/:id", h.UpdateEventStatus)
		admin.POST("/users/:id/reconcile", h.ReconcileBalance)
	}
}

// Authentication handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Status:  "error",
				Code:    "EMAIL_TAKEN",
				Message: err.Error(),
			})
			return
		}
		internalError(c)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "INVALID_CREDENTIALS",
				Message: err.Error(),
			})
			return
		}
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Waste report handlers
func (h *Handler) SubmitReport(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var req models.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.SubmitReport(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWasteSize) {
			badRequest(c, err.Error())
			return
		}
		internalError(c)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetUserReports(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	resp, err := h.svc.GetUserReports(c.Request.Context(), userID)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetRecentReports(c *gin.Context) {
	resp, err := h.svc.GetRecentReports(c.Request.Context())
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateReportStatus(c *gin.Context) {
	var req models.UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	err := h.svc.UpdateReportStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c, "Report not found")
			return
		}
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Token and reward handlers
func (h *Handler) GetTokenSummary(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	resp, err := h.svc.GetTokenSummary(c.Request.Context(), userID)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateReward(c *gin.Context) {
	var req models.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.CreateReward(c.Request.Context(), req)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListRewards(c *gin.Context) {
	resp, err := h.svc.ListRewards(c.Request.Context())
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) RedeemReward(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	resp, err := h.svc.RedeemReward(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			notFound(c, "Reward not found")
		case errors.Is(err, service.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Status:  "error",
				Code:    "INSUFFICIENT_BALANCE",
				Message: err.Error(),
			})
		case errors.Is(err, service.ErrRewardOutOfStock):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Status:  "error",
				Code:    "OUT_OF_STOCK",
				Message: err.Error(),
			})
		default:
			internalError(c)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	resp, err := h.svc.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Collection event handlers
func (h *Handler) ListEvents(c *gin.Context) {
	resp, err := h.svc.ListEvents(c.Request.Context())
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateEvent(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.CreateEvent(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEventDate) {
			badRequest(c, err.Error())
			return
		}
		internalError(c)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) UpdateEventStatus(c *gin.Context) {
	var req models.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	err := h.svc.UpdateEventStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c, "Event not found")
			return
		}
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Admin handlers
func (h *Handler) AdminStatus(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	c.JSON(http.StatusOK, models.AdminStatusResponse{
		Status:  "success",
		IsAdmin: h.svc.IsAdmin(c.Request.Context(), userID),
	})
}

func (h *Handler) ReconcileBalance(c *gin.Context) {
	resp, err := h.svc.ReconcileBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Error helpers
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "BAD_REQUEST",
		Message: message,
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Status:  "error",
		Code:    "NOT_FOUND",
		Message: message,
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Status:  "error",
		Code:    "INTERNAL_ERROR",
		Message: "An internal error occurred",
	})
}
