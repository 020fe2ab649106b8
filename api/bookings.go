package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/handybook/internal/domain"
	"github.com/Domenick1991/handybook/internal/repository"
	"github.com/Domenick1991/handybook/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	UserEmail     string    `json:"user_email"`
	HandymanEmail string    `json:"handyman_email"`
	DesiredStart  time.Time `json:"desired_start"`
	DesiredEnd    time.Time `json:"desired_end"`
}

type bookingResponse struct {
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	UserEmail     string `json:"user_email"`
	HandymanEmail string `json:"handyman_email"`
	DesiredStart  string `json:"desired_start"`
	DesiredEnd    string `json:"desired_end"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:booking_id", h.get)
	router.POST("/:booking_id/confirm", h.confirm)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserEmail:     req.UserEmail,
		HandymanEmail: req.HandymanEmail,
		DesiredStart:  req.DesiredStart,
		DesiredEnd:    req.DesiredEnd,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	confirmed, err := h.service.RequestConfirm(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		case errors.Is(err, booking.ErrNotReserved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(confirmed))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingID:     b.BookingID,
		Status:        string(b.Status),
		UserEmail:     b.UserEmail,
		HandymanEmail: b.HandymanEmail,
		DesiredStart:  b.DesiredStart.Format(time.RFC3339Nano),
		DesiredEnd:    b.DesiredEnd.Format(time.RFC3339Nano),
		FailureReason: b.FailureReason,
	}
}
