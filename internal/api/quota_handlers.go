package api

import (
	"net/http"

	"quota-service/internal/models"
	"quota-service/internal/service"
	"quota-service/internal/store"

	"github.com/gin-gonic/gin"
)

// listProducts returns the input catalog
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.quotaService.ListProducts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// createQuota opens a new quota with the caller as first participant
func (h *Handler) createQuota(c *gin.Context) {
	var req service.CreateQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	quota, err := h.quotaService.CreateQuota(c.Request.Context(), currentProfile(c).ID, &req, h.defaultMaxParticipants)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, quota)
}

// listQuotas lists open quotas; ?mine=1 and ?participating=1 narrow to the
// caller's own and joined quotas.
func (h *Handler) listQuotas(c *gin.Context) {
	ctx := c.Request.Context()
	profile := currentProfile(c)

	var (
		quotas []service.QuotaResponse
		err    error
	)
	switch {
	case c.Query("mine") == "1":
		quotas, err = h.quotaService.ListQuotasByOwner(ctx, profile.ID)
	case c.Query("participating") == "1":
		quotas, err = h.quotaService.ListQuotasParticipating(ctx, profile.ID)
	default:
		quotas, err = h.quotaService.ListOpenQuotas(ctx, store.QuotaFilter{
			Category:   c.Query("category"),
			SearchTerm: c.Query("q"),
			Location:   c.Query("location"),
		})
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotas": quotas})
}

// getQuota returns the quota detail view
func (h *Handler) getQuota(c *gin.Context) {
	detail, err := h.quotaService.GetQuota(c.Request.Context(), c.Param("id"), currentProfile(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// cancelQuota withdraws the caller's own open quota
func (h *Handler) cancelQuota(c *gin.Context) {
	quota, err := h.quotaService.CancelQuota(c.Request.Context(), c.Param("id"), currentProfile(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quota)
}

// requestToJoin files a pending join request on a quota
func (h *Handler) requestToJoin(c *gin.Context) {
	var req service.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	participant, err := h.participationService.RequestToJoin(
		c.Request.Context(), c.Param("id"), currentProfile(c).ID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// listParticipants returns the owner's approval view for a quota
func (h *Handler) listParticipants(c *gin.Context) {
	participants, err := h.participationService.ListParticipants(
		c.Request.Context(), c.Param("id"), currentProfile(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

type decideRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// decideParticipant applies the owner's approve/reject decision
func (h *Handler) decideParticipant(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	participant, err := h.participationService.DecideParticipant(
		c.Request.Context(), c.Param("id"), currentProfile(c).ID, req.Decision)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

// submitBid files a seller's offer on a quota
func (h *Handler) submitBid(c *gin.Context) {
	var req service.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	bid, err := h.bidService.SubmitBid(c.Request.Context(), c.Param("id"), currentProfile(c).ID, &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, bid)
}

// listBids returns all bids on a quota
func (h *Handler) listBids(c *gin.Context) {
	bids, err := h.bidService.ListBids(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// listMyBids returns the caller's own bids across quotas
func (h *Handler) listMyBids(c *gin.Context) {
	bids, err := h.bidService.ListSellerBids(c.Request.Context(), currentProfile(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

type acceptBidRequest struct {
	QuotaID string `json:"quota_id" binding:"required"`
}

// acceptBid atomically accepts a bid and closes its quota
func (h *Handler) acceptBid(c *gin.Context) {
	var req acceptBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	bid, err := h.bidService.AcceptBid(c.Request.Context(), c.Param("id"), req.QuotaID, currentProfile(c).ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}
