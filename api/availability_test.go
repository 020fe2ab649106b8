package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/handybook/internal/domain"
	"github.com/Domenick1991/handybook/internal/service/availability"
)

// MockAvailabilityUseCase is a mock implementation of availability.AvailabilityUseCase
type MockAvailabilityUseCase struct {
	mock.Mock
}

func (m *MockAvailabilityUseCase) SetAvailability(ctx context.Context, email string, slots []domain.Interval) error {
	args := m.Called(ctx, email, slots)
	return args.Error(0)
}

func (m *MockAvailabilityUseCase) GetAvailability(ctx context.Context, email string) ([]domain.Interval, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.Interval), args.Error(1)
}

func (m *MockAvailabilityUseCase) ClearAvailability(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func TestAvailabilityHandler_set(t *testing.T) {
	mockService := &MockAvailabilityUseCase{}
	handler := NewAvailabilityHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "email", Value: "pro@example.com"}}

	body, err := json.Marshal(setAvailabilityRequest{Slots: []slotPayload{
		{Start: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
	}})
	require.NoError(t, err)
	c.Request = httptest.NewRequest("POST", "/availability/pro@example.com", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("SetAvailability", c.Request.Context(), "pro@example.com", mock.AnythingOfType("[]domain.Interval")).
		Return(nil).Once()

	handler.set(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestAvailabilityHandler_set_invalidSlot(t *testing.T) {
	mockService := &MockAvailabilityUseCase{}
	handler := NewAvailabilityHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "email", Value: "pro@example.com"}}

	body, err := json.Marshal(setAvailabilityRequest{Slots: []slotPayload{
		{Start: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
	}})
	require.NoError(t, err)
	c.Request = httptest.NewRequest("POST", "/availability/pro@example.com", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("SetAvailability", c.Request.Context(), "pro@example.com", mock.Anything).
		Return(availability.ErrInvalidSlot).Once()

	handler.set(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandler_get(t *testing.T) {
	mockService := &MockAvailabilityUseCase{}
	handler := NewAvailabilityHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "email", Value: "pro@example.com"}}
	c.Request = httptest.NewRequest("GET", "/availability/pro@example.com", nil)

	slots := []domain.Interval{
		domain.NewInterval(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
	}
	mockService.On("GetAvailability", c.Request.Context(), "pro@example.com").Return(slots, nil).Once()

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp availabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pro@example.com", resp.Email)
	require.Len(t, resp.Slots, 1)
}

func TestAvailabilityHandler_clear(t *testing.T) {
	mockService := &MockAvailabilityUseCase{}
	handler := NewAvailabilityHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "email", Value: "pro@example.com"}}
	c.Request = httptest.NewRequest("DELETE", "/availability/pro@example.com", nil)

	mockService.On("ClearAvailability", c.Request.Context(), "pro@example.com").Return(nil).Once()

	handler.clear(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
