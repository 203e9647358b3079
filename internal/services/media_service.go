package services

import (
	"context"
	"errors"

	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/media"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"go.uber.org/zap"
)

// Media kinds, also used as metric labels and archive path segments
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// MediaService runs the decode, archive, stage, upload and register steps
// for one inline payload. Every failure comes back as *shopify.MediaUploadError.
type MediaService struct {
	uploader StagedUploader
	archive  MediaArchiver
}

// NewMediaService creates a new media service. archive may be nil.
func NewMediaService(uploader StagedUploader, archive MediaArchiver) *MediaService {
	return &MediaService{
		uploader: uploader,
		archive:  archive,
	}
}

// Upload stores one payload and returns the platform file ID
func (s *MediaService) Upload(ctx context.Context, kind string, productID int64, payload *models.MediaPayload) (string, error) {
	fileID, err := s.upload(ctx, kind, productID, payload)
	if err != nil {
		var mue *shopify.MediaUploadError
		phase := "unknown"
		if errors.As(err, &mue) {
			phase = string(mue.Phase)
		}
		metrics.MediaUploads.WithLabelValues(kind, "failed_"+phase).Inc()
		logger.Warn("Media upload failed",
			zap.String("kind", kind),
			zap.Int64("product_id", productID),
			zap.String("phase", phase),
			zap.Error(err))
		return "", err
	}

	metrics.MediaUploads.WithLabelValues(kind, "success").Inc()
	logger.Info("Media uploaded",
		zap.String("kind", kind),
		zap.Int64("product_id", productID),
		zap.String("file_id", fileID))
	return fileID, nil
}

func (s *MediaService) upload(ctx context.Context, kind string, productID int64, payload *models.MediaPayload) (string, error) {
	if payload == nil {
		return "", &shopify.MediaUploadError{Phase: shopify.PhaseDecode, Err: media.ErrEmptyPayload}
	}

	file, err := media.Decode(payload.Data, payload.MimeType, payload.Filename)
	if err != nil {
		return "", &shopify.MediaUploadError{Phase: shopify.PhaseDecode, Err: err}
	}

	s.archiveCopy(ctx, kind, productID, file)

	target, err := s.uploader.StageUpload(ctx, shopify.StageRequest{
		Filename: file.Filename,
		MIMEType: file.MIMEType,
		Size:     file.Size(),
	})
	if err != nil {
		return "", asUploadError(shopify.PhaseStage, err)
	}

	if err := s.uploader.UploadStaged(ctx, target, file.Filename, file.MIMEType, file.Data); err != nil {
		return "", asUploadError(shopify.PhaseUpload, err)
	}

	uploaded, err := s.uploader.RegisterFile(ctx, target)
	if err != nil {
		return "", asUploadError(shopify.PhaseRegister, err)
	}

	return uploaded.ID, nil
}

// archiveCopy is best effort; the platform upload goes ahead regardless
func (s *MediaService) archiveCopy(ctx context.Context, kind string, productID int64, file *media.File) {
	if s.archive == nil {
		return
	}

	key := s.archive.Key(productID, kind, file.Filename)
	url, err := s.archive.Put(ctx, key, file.MIMEType, file.Data)
	if err != nil {
		logger.Warn("Failed to archive media, continuing",
			zap.String("kind", kind),
			zap.String("key", key),
			zap.Error(err))
		return
	}

	logger.Debug("Media archived", zap.String("url", url))
}

func asUploadError(phase shopify.UploadPhase, err error) error {
	var mue *shopify.MediaUploadError
	if errors.As(err, &mue) {
		return err
	}
	return &shopify.MediaUploadError{Phase: phase, Err: err}
}
