package register

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/services/user"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная регистрация",
			body: `{"username":"reader","email":"reader@example.com","password":"s3cure-pass"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.MatchedBy(func(r models.RegisterRequest) bool {
					return r.Username == "reader" && r.Email == "reader@example.com"
				})).Return(&models.AuthResult{
					User:   &models.User{UUID: "uid-1", Username: "reader", IsSubscribed: true},
					Tokens: models.Tokens{Access: "access-token", Refresh: "refresh-token"},
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"access":"access-token"`,
		},
		{
			name:           "некорректный JSON",
			body:           `not a json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "невалидный email",
			body:           `{"username":"reader","email":"nope","password":"s3cure-pass"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Email must be a valid email address`,
		},
		{
			name: "пользователь уже существует",
			body: `{"username":"reader","email":"reader@example.com","password":"s3cure-pass"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(nil, &user.ValidationError{Field: "username", Message: "A user with this username already exists."})
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `A user with this username already exists.`,
		},
		{
			name: "ошибка сервиса",
			body: `{"username":"reader","email":"reader@example.com","password":"s3cure-pass"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/users/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			New(sl.Discard(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
