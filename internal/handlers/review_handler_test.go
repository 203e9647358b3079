package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reviewbridge/reviewbridge-api/internal/middleware"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := RegisterBindingValidations(); err != nil {
		panic(err)
	}
}

type mockReviewService struct {
	mock.Mock
}

func (m *mockReviewService) CreateReview(ctx context.Context, sub *models.ReviewSubmission) (*models.CreateReviewResult, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateReviewResult), args.Error(1)
}

func (m *mockReviewService) GetProductReviews(ctx context.Context, productID int64) ([]models.ReviewRecord, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewRecord), args.Error(1)
}

func (m *mockReviewService) GetProductStats(ctx context.Context, productID int64) (*models.ReviewStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewStats), args.Error(1)
}

func (m *mockReviewService) ListReviews(ctx context.Context, q models.ReviewListQuery) (*models.ReviewPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewPage), args.Error(1)
}

func (m *mockReviewService) GetReview(ctx context.Context, id string) (*models.ReviewRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewRecord), args.Error(1)
}

func (m *mockReviewService) UpdateReview(ctx context.Context, id string, patch *models.ReviewPatch) (*models.ReviewRecord, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewRecord), args.Error(1)
}

func (m *mockReviewService) DeleteReview(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockReviewService) PublishReview(ctx context.Context, id string) (*models.ReviewRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewRecord), args.Error(1)
}

func (m *mockReviewService) PublishAllDrafts(ctx context.Context) (*models.PublishAllResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublishAllResult), args.Error(1)
}

func setupReviewRouter(svc *mockReviewService, exposeDetail bool) *gin.Engine {
	handler := NewReviewHandler(svc, exposeDetail)
	router := gin.New()
	router.Use(Recovery(exposeDetail))
	RegisterReviewRoutes(router.Group("/api/reviews"), handler, RouteMiddleware{})
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

const validReviewBody = `{
	"productId": 42,
	"rating": 5,
	"title": "Lovely",
	"body": "Fits perfectly.",
	"authorName": "Sam",
	"authorEmail": "sam@example.com",
	"fitRating": 3
}`

func TestCreateReview_Created(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("CreateReview", mock.Anything, mock.MatchedBy(func(sub *models.ReviewSubmission) bool {
		return sub.ProductID == 42 && sub.Rating == 5 && sub.ShippingRating == nil
	})).Return(&models.CreateReviewResult{Review: &models.ReviewRecord{ID: "gid://shopify/Metaobject/1"}}, nil)

	w := doRequest(router, http.MethodPost, "/api/reviews", validReviewBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Review models.ReviewRecord `json:"review"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "gid://shopify/Metaobject/1", resp.Data.Review.ID)
}

func TestCreateReview_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing author", strings.Replace(validReviewBody, `"authorName": "Sam",`, "", 1), "authorName"},
		{"missing body", strings.Replace(validReviewBody, `"body": "Fits perfectly.",`, "", 1), "body"},
		{"rating out of range", strings.Replace(validReviewBody, `"rating": 5`, `"rating": 9`, 1), "rating"},
		{"bad email", strings.Replace(validReviewBody, `sam@example.com`, `not-an-email`, 1), "authorEmail"},
		{"zero product", strings.Replace(validReviewBody, `"productId": 42`, `"productId": 0`, 1), "productId"},
		{"wrong type", strings.Replace(validReviewBody, `"rating": 5`, `"rating": "five"`, 1), "rating"},
		{
			"media type not allowed",
			strings.Replace(validReviewBody, `"fitRating": 3`, `"fitRating": 3, "image": {"data": "aGVsbG8=", "mimeType": "image/bmp"}`, 1),
			"image.mimeType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockReviewService)
			router := setupReviewRouter(svc, false)

			w := doRequest(router, http.MethodPost, "/api/reviews", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			fields := make([]string, 0, len(resp.Errors))
			for _, fe := range resp.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
			svc.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateReview_WrongTypeMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"string rating", strings.Replace(validReviewBody, `"rating": 5`, `"rating": "five"`, 1), "rating must be a whole number"},
		{"numeric author", strings.Replace(validReviewBody, `"authorName": "Sam"`, `"authorName": 7`, 1), "authorName must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockReviewService)
			router := setupReviewRouter(svc, false)

			w := doRequest(router, http.MethodPost, "/api/reviews", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.message, resp.Errors[0].Message)
		})
	}
}

func TestCreateReview_MalformedBody(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	w := doRequest(router, http.MethodPost, "/api/reviews", `{"productId":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, w).Message)
}

func TestGetProductReviews(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("GetProductReviews", mock.Anything, int64(42)).Return([]models.ReviewRecord{{ID: "a"}}, nil)

	w := doRequest(router, http.MethodGet, "/api/reviews/product/42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = doRequest(router, http.MethodGet, "/api/reviews/product/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "productId", decodeError(t, w).Errors[0].Field)
}

func TestGetProductStats(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("GetProductStats", mock.Anything, int64(7)).Return(&models.ReviewStats{
		ProductID:          7,
		TotalReviews:       2,
		AverageRating:      4.5,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 1},
	}, nil)

	w := doRequest(router, http.MethodGet, "/api/reviews/stats/7", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"averageRating":4.5`)
	assert.Contains(t, w.Body.String(), `"ratingDistribution":{"1":0,"2":0,"3":0,"4":1,"5":1}`)
}

func TestListReviews_Query(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("ListReviews", mock.Anything, models.ReviewListQuery{Page: 2, Limit: 10, Cursor: "abc"}).
		Return(&models.ReviewPage{Page: 2, Limit: 10, Reviews: []models.ReviewRecord{}}, nil)

	w := doRequest(router, http.MethodGet, "/api/reviews?page=2&limit=10&cursor=abc", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/reviews?limit=1000", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReview_NotFound(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("GetReview", mock.Anything, "404").Return(nil, pkgerrors.NotFoundError("review"))

	w := doRequest(router, http.MethodGet, "/api/reviews/404", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Review not found", decodeError(t, w).Message)
}

func TestReviewByID_RejectsMalformedID(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/reviews/abc", ""},
		{http.MethodGet, "/api/reviews/0", ""},
		{http.MethodPut, "/api/reviews/abc", `{"title": "x"}`},
		{http.MethodDelete, "/api/reviews/12x", ""},
		{http.MethodPut, "/api/reviews/abc/publish", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			svc := new(mockReviewService)
			router := setupReviewRouter(svc, false)

			w := doRequest(router, tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, "ratingId", resp.Errors[0].Field)
			assert.Empty(t, svc.Calls)
		})
	}
}

func TestUpdateReview(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("UpdateReview", mock.Anything, "5", mock.MatchedBy(func(p *models.ReviewPatch) bool {
		return p.IsApproved != nil && *p.IsApproved && p.Rating == nil
	})).Return(&models.ReviewRecord{ID: "5"}, nil)

	w := doRequest(router, http.MethodPut, "/api/reviews/5", `{"isApproved": true}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPut, "/api/reviews/5", `{"rating": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPut, "/api/reviews/5", `{"status": "archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReview_RemoteRejection(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("UpdateReview", mock.Anything, "5", mock.Anything).Return(nil, &shopify.RemoteValidationError{
		Operation: "metaobjectUpdate",
		Errors:    []shopify.UserError{{Message: "Value is invalid"}, {Message: "Field is locked"}},
	})

	w := doRequest(router, http.MethodPut, "/api/reviews/5", `{"title": "x"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Value is invalid, Field is locked", decodeError(t, w).Message)
}

func TestDeleteAndPublish(t *testing.T) {
	svc := new(mockReviewService)
	router := setupReviewRouter(svc, false)

	svc.On("DeleteReview", mock.Anything, "5").Return("gid://shopify/Metaobject/5", nil)
	svc.On("PublishReview", mock.Anything, "6").Return(&models.ReviewRecord{ID: "6", Status: "ACTIVE"}, nil)
	svc.On("PublishAllDrafts", mock.Anything).Return(&models.PublishAllResult{
		TotalProcessed: 1,
		Successful:     1,
		Results:        []models.PublishOutcome{{ID: "B", Success: true}},
	}, nil)

	w := doRequest(router, http.MethodDelete, "/api/reviews/5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deletedId":"gid://shopify/Metaobject/5"`)

	w = doRequest(router, http.MethodPut, "/api/reviews/6/publish", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ACTIVE"`)

	w = doRequest(router, http.MethodPost, "/api/reviews/publish-all-drafts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalProcessed":1`)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail bool
	}{
		{"conflict", pkgerrors.ErrConflict, http.StatusConflict, false},
		{"transport", &shopify.RemoteTransportError{Operation: "metaobject", StatusCode: 502}, http.StatusInternalServerError, true},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, expose := range []bool{false, true} {
				svc := new(mockReviewService)
				router := setupReviewRouter(svc, expose)
				svc.On("GetReview", mock.Anything, "1").Return(nil, tt.err)

				w := doRequest(router, http.MethodGet, "/api/reviews/1", "")

				assert.Equal(t, tt.status, w.Code)
				resp := decodeError(t, w)
				assert.False(t, resp.Success)
				if tt.detail && expose {
					assert.Equal(t, tt.err.Error(), resp.Detail)
				} else {
					assert.Empty(t, resp.Detail)
				}
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(false))
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := doRequest(router, http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Internal server error", resp.Message)
	assert.Empty(t, resp.Detail)
}

func TestCreateReview_BodyTooLarge(t *testing.T) {
	svc := new(mockReviewService)
	router := gin.New()
	RegisterReviewRoutes(router.Group("/api/reviews"), NewReviewHandler(svc, false), RouteMiddleware{
		BodyLimit: middleware.BodySizeLimitMiddleware(64),
	})

	// chunked upload: the declared length is unknown so the limit trips while decoding
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(validReviewBody))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	svc.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
}
