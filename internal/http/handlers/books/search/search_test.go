package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookflix/internal/bookprovider"
	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/services/book"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Search(ctx context.Context, userUID, query, category, source string) ([]models.BookView, error) {
	args := m.Called(ctx, userUID, query, category, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookView), args.Error(1)
}

func TestSearchHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		userUID        string
		forSource      string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "результаты с состоянием пользователя",
			url:     "/books/search?q=dune",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "user-1", "dune", "", "").Return([]models.BookView{
					{Book: models.Book{ID: 1, Title: "Dune"}, BookState: models.BookState{IsFavorited: true}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_favorited":true`,
		},
		{
			name: "пустой результат",
			url:  "/books/search?q=zzzz&source=openlibrary",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "", "zzzz", "", "openlibrary").Return([]models.BookView{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":[]}`,
		},
		{
			name:      "провайдер зафиксирован",
			url:       "/googlebooks/search?category=fantasy&source=openlibrary",
			forSource: models.SourceGoogle,
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "", "", "fantasy", models.SourceGoogle).Return([]models.BookView{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "нет запроса",
			url:  "/books/search",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "", "", "", "").Return(nil, book.ErrEmptyQuery)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Query parameter is required.`,
		},
		{
			name: "таймаут провайдера",
			url:  "/books/search?q=dune",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "", "dune", "", "").
					Return(nil, fmt.Errorf("book.Search: %w", bookprovider.ErrTimeout))
			},
			expectedStatus: http.StatusGatewayTimeout,
		},
		{
			name: "провайдер ответил ошибкой",
			url:  "/books/search?q=dune",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "", "dune", "", "").
					Return(nil, &bookprovider.HTTPError{Provider: "googlebooks", StatusCode: 500})
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name: "битый ответ провайдера",
			url:  "/books/search?q=dune",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "", "dune", "", "").Return(nil, bookprovider.ErrMalformed)
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			var h *Handler
			if tt.forSource != "" {
				h = NewForSource(sl.Discard(), mockService, tt.forSource)
			} else {
				h = New(sl.Discard(), mockService)
			}

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
