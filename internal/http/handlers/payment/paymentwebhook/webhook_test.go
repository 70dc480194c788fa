package paymentwebhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vivu-travel/internal/paymentprovider"
)

// MockService реализует интерфейс paymentwebhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) HandleWebhook(ctx context.Context, payload *paymentprovider.WebhookPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := `{"code":"00","desc":"success","signature":"abc123",` +
		`"data":{"orderCode":170001,"amount":25000,"status":"PAID","reference":"FT123"}}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная обработка вебхука",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(p *paymentprovider.WebhookPayload) bool {
					return p.Data.OrderCode == 170001 && p.Data.Status == "PAID"
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"received":true`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"code":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid webhook payload"`,
		},
		{
			name: "невалидная подпись",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, mock.Anything).
					Return(paymentprovider.ErrBadSignature)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"invalid signature"`,
		},
		{
			name: "ошибка обработки",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("HandleWebhook", mock.Anything, mock.Anything).
					Return(errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not process webhook"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
