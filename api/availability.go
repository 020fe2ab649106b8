package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/handybook/internal/domain"
	"github.com/Domenick1991/handybook/internal/service/availability"
)

type AvailabilityHandler struct {
	service availability.AvailabilityUseCase
}

type slotPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type setAvailabilityRequest struct {
	Slots []slotPayload `json:"slots"`
}

type availabilityResponse struct {
	Email string        `json:"email"`
	Slots []slotPayload `json:"slots"`
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.POST("/:email", h.set)
	router.GET("/:email", h.get)
	router.DELETE("/:email", h.clear)
}

func (h *AvailabilityHandler) set(c *gin.Context) {
	var req setAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slots := make([]domain.Interval, 0, len(req.Slots))
	for _, s := range req.Slots {
		slots = append(slots, domain.NewInterval(s.Start, s.End))
	}

	if err := h.service.SetAvailability(c.Request.Context(), c.Param("email"), slots); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "availability updated"})
}

func (h *AvailabilityHandler) get(c *gin.Context) {
	email := c.Param("email")
	slots, err := h.service.GetAvailability(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := availabilityResponse{Email: email, Slots: make([]slotPayload, 0, len(slots))}
	for _, iv := range slots {
		resp.Slots = append(resp.Slots, slotPayload{Start: iv.Start, End: iv.End})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AvailabilityHandler) clear(c *gin.Context) {
	if err := h.service.ClearAvailability(c.Request.Context(), c.Param("email")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "availability cleared"})
}
