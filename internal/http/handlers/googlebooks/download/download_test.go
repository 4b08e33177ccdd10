package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/services/book"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Download(ctx context.Context, externalID, format string) (*models.DownloadLinks, error) {
	args := m.Called(ctx, externalID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DownloadLinks), args.Error(1)
}

func TestDownloadHandler(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "формат по умолчанию pdf",
			setupMock: func(m *MockService) {
				m.On("Download", mock.Anything, "vol1", "pdf").
					Return(&models.DownloadLinks{Links: map[string]string{"pdf": "https://books.test/pdf"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"pdf":"https://books.test/pdf"`,
		},
		{
			name:  "только предпросмотр",
			query: "?format=mobi",
			setupMock: func(m *MockService) {
				m.On("Download", mock.Anything, "vol1", "mobi").Return(&models.DownloadLinks{
					Message:     "Direct download not available for this book in mobi format.",
					PreviewLink: "https://books.test/preview",
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"preview_link":"https://books.test/preview"`,
		},
		{
			name:  "неподдерживаемый формат",
			query: "?format=docx",
			setupMock: func(m *MockService) {
				m.On("Download", mock.Anything, "vol1", "docx").Return(nil, book.ErrInvalidFormat)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Supported formats: pdf, epub, mobi, txt.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/googlebooks/vol1/download"+tt.query, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("externalID", "vol1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(sl.Discard(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
