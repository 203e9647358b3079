package services_test

import (
	"context"

	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/internal/repository"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a mock implementation of ReviewObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Create(ctx context.Context, handle string, fields []shopify.Field) (*models.ReviewRecord, error) {
	args := m.Called(ctx, handle, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewRecord), args.Error(1)
}

func (m *MockObjectStore) Get(ctx context.Context, id string) (*models.ReviewRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewRecord), args.Error(1)
}

func (m *MockObjectStore) Update(ctx context.Context, id string, fields []shopify.Field, status *shopify.ObjectStatus) (*models.ReviewRecord, error) {
	args := m.Called(ctx, id, fields, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewRecord), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) List(ctx context.Context, first int, after string) ([]models.ReviewRecord, models.PageInfo, error) {
	args := m.Called(ctx, first, after)
	if args.Get(0) == nil {
		return nil, args.Get(1).(models.PageInfo), args.Error(2)
	}
	return args.Get(0).([]models.ReviewRecord), args.Get(1).(models.PageInfo), args.Error(2)
}

func (m *MockObjectStore) ProductReviewIDs(ctx context.Context, productID int64) ([]string, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockObjectStore) LinkToProduct(ctx context.Context, productID int64, objectID string) error {
	args := m.Called(ctx, productID, objectID)
	return args.Error(0)
}

func (m *MockObjectStore) UnlinkFromProduct(ctx context.Context, productID int64, objectID string) error {
	args := m.Called(ctx, productID, objectID)
	return args.Error(0)
}

// MockMirror is a mock implementation of ReviewMirror
type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) Insert(ctx context.Context, row *repository.MirrorRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockMirror) SetApproved(ctx context.Context, objectID string, approved bool) (bool, error) {
	args := m.Called(ctx, objectID, approved)
	return args.Bool(0), args.Error(1)
}

func (m *MockMirror) Delete(ctx context.Context, objectID string) error {
	args := m.Called(ctx, objectID)
	return args.Error(0)
}

// MockMediaUploader is a mock implementation of MediaUploader
type MockMediaUploader struct {
	mock.Mock
}

func (m *MockMediaUploader) Upload(ctx context.Context, kind string, productID int64, payload *models.MediaPayload) (string, error) {
	args := m.Called(ctx, kind, productID, payload)
	return args.String(0), args.Error(1)
}

// MockStagedUploader is a mock implementation of StagedUploader
type MockStagedUploader struct {
	mock.Mock
}

func (m *MockStagedUploader) StageUpload(ctx context.Context, req shopify.StageRequest) (*shopify.StagedUploadTarget, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopify.StagedUploadTarget), args.Error(1)
}

func (m *MockStagedUploader) UploadStaged(ctx context.Context, target *shopify.StagedUploadTarget, filename, mimeType string, data []byte) error {
	args := m.Called(ctx, target, filename, mimeType, data)
	return args.Error(0)
}

func (m *MockStagedUploader) RegisterFile(ctx context.Context, target *shopify.StagedUploadTarget) (*shopify.UploadedFile, error) {
	args := m.Called(ctx, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopify.UploadedFile), args.Error(1)
}

// MockArchiver is a mock implementation of MediaArchiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Key(productID int64, kind, filename string) string {
	args := m.Called(productID, kind, filename)
	return args.String(0)
}

func (m *MockArchiver) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}
