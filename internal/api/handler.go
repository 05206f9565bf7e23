package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"quota-service/internal/auth"
	"quota-service/internal/models"
	"quota-service/internal/realtime"
	"quota-service/internal/service"
	"quota-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const profileKey = "profile"

// Handler contains HTTP handlers
type Handler struct {
	authService            *auth.Service
	quotaService           *service.QuotaService
	participationService   *service.ParticipationService
	bidService             *service.BidService
	chatService            *service.ChatService
	hub                    *realtime.Hub
	defaultMaxParticipants int
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *auth.Service,
	quotaService *service.QuotaService,
	participationService *service.ParticipationService,
	bidService *service.BidService,
	chatService *service.ChatService,
	hub *realtime.Hub,
	defaultMaxParticipants int,
) *Handler {
	return &Handler{
		authService:            authService,
		quotaService:           quotaService,
		participationService:   participationService,
		bidService:             bidService,
		chatService:            chatService,
		hub:                    hub,
		defaultMaxParticipants: defaultMaxParticipants,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/signup", h.signUp)
		v1.POST("/auth/login", h.login)

		authed := v1.Group("", h.authRequired())
		{
			authed.POST("/auth/logout", h.logout)
			authed.GET("/auth/me", h.me)
			authed.PATCH("/auth/me", h.updateProfile)

			authed.GET("/products", h.listProducts)

			authed.POST("/quotas", h.createQuota)
			authed.GET("/quotas", h.listQuotas)
			authed.GET("/quotas/:id", h.getQuota)
			authed.POST("/quotas/:id/cancel", h.cancelQuota)

			authed.POST("/quotas/:id/participants", h.requestToJoin)
			authed.GET("/quotas/:id/participants", h.listParticipants)
			authed.PATCH("/participants/:id", h.decideParticipant)

			authed.POST("/quotas/:id/bids", h.submitBid)
			authed.GET("/quotas/:id/bids", h.listBids)
			authed.GET("/bids", h.listMyBids)
			authed.POST("/bids/:id/accept", h.acceptBid)

			authed.GET("/quotas/:id/messages", h.chatHistory)
			authed.POST("/quotas/:id/messages", h.sendMessage)

			authed.GET("/notifications", h.listNotifications)
			authed.PATCH("/notifications/:id/read", h.markNotificationRead)
		}
	}

	router.GET("/ws", h.authRequired(), h.serveWS)
}

// authRequired resolves the bearer token (or token query parameter for the
// websocket) to a profile and stores it in the request context.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(models.ErrUnauthorized))
			return
		}

		profile, err := h.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(statusOf(err), errorBody(err))
			return
		}

		c.Set(profileKey, profile)
		c.Next()
	}
}

func currentProfile(c *gin.Context) *models.Profile {
	return c.MustGet(profileKey).(*models.Profile)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// serveWS attaches the caller to the realtime hub
func (h *Handler) serveWS(c *gin.Context) {
	profile := currentProfile(c)
	if err := h.hub.ServeWS(c.Writer, c.Request, profile.ID, h.chatService.CanAccess); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
	}
}

// statusOf maps a domain error code to an HTTP status
func statusOf(err error) int {
	switch models.CodeOf(err) {
	case models.ErrCodeNotFound:
		return http.StatusNotFound
	case models.ErrCodeInvalid:
		return http.StatusBadRequest
	case models.ErrCodeConflict:
		return http.StatusConflict
	case models.ErrCodeForbidden:
		return http.StatusForbidden
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders the structured error payload: a machine code plus a
// human message, never constraint text to be pattern-matched.
func errorBody(err error) gin.H {
	return gin.H{
		"code":  string(models.CodeOf(err)),
		"error": err.Error(),
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), errorBody(err))
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
