package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StoredFile describes an uploaded object.
type StoredFile struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// UploadService validates uploads and keeps them in the file store. Photo
// keys returned here are what phases, problems and notes reference.
type UploadService struct {
	base
	store FileStore
}

func NewUploadService(db *gorm.DB, store FileStore, logger *zap.Logger) *UploadService {
	return &UploadService{base: newBase(db, nil, logger), store: store}
}

// Upload validates and stores a file. Validation failures are returned as
// *utils.FileUploadError.
func (s *UploadService) Upload(ctx context.Context, actor models.Actor, fileHeader *multipart.FileHeader, kind utils.UploadKind) (*StoredFile, error) {
	contentType, err := utils.ValidateUpload(fileHeader, kind)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			return nil, err
		}
		return nil, apperrors.Internal("failed to read upload", err)
	}

	key := s.objectKey(kind, fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.Internal("failed to open upload", err)
	}
	defer file.Close()

	if err := s.store.Put(ctx, key, file, contentType); err != nil {
		return nil, apperrors.Internal("failed to store file", err)
	}

	url, err := s.store.PresignedURL(ctx, key)
	if err != nil {
		return nil, apperrors.Internal("failed to sign file URL", err)
	}

	s.logger.Info("File uploaded",
		zap.String("key", key),
		zap.String("kind", string(kind)),
		zap.Int64("size", fileHeader.Size),
		zap.Uint("user_id", actor.UserID),
	)
	return &StoredFile{Key: key, URL: url, ContentType: contentType, Size: fileHeader.Size}, nil
}

// URL signs a download link for a stored key.
func (s *UploadService) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", apperrors.Validation("key is required")
	}
	url, err := s.store.PresignedURL(ctx, key)
	if err != nil {
		return "", apperrors.Internal("failed to sign file URL", err)
	}
	return url, nil
}

// AttachOrderDocument uploads an order confirmation PDF and links it to the
// order, replacing any previous document.
func (s *UploadService) AttachOrderDocument(ctx context.Context, actor models.Actor, orderID uint, fileHeader *multipart.FileHeader) (*StoredFile, error) {
	if err := requireOffice(actor, "attach order documents"); err != nil {
		return nil, err
	}
	if err := ensureOrderExists(s.db.WithContext(ctx), orderID); err != nil {
		return nil, err
	}

	stored, err := s.Upload(ctx, actor, fileHeader, utils.UploadDocument)
	if err != nil {
		return nil, err
	}

	var previous *string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "pdf_path").First(&order, orderID).Error; err != nil {
			return dbError(err, "order")
		}
		if order.PDFPath != nil {
			p := *order.PDFPath
			previous = &p
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("pdf_path", stored.Key).Error; err != nil {
			return dbError(err, "order")
		}
		return logActivity(tx, actor, &orderID, models.ActionOrderUpdated, map[string]interface{}{
			"fields": []string{"pdf_path"},
		})
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, stored.Key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned upload", zap.String("key", stored.Key), zap.Error(delErr))
		}
		return nil, err
	}

	if previous != nil && *previous != stored.Key {
		if err := s.store.Delete(ctx, *previous); err != nil {
			s.logger.Warn("Failed to remove replaced document", zap.String("key", *previous), zap.Error(err))
		}
	}
	return stored, nil
}

// objectKey is photos/2026/10/<uuid>.jpg or documents/2026/10/<uuid>.pdf.
func (s *UploadService) objectKey(kind utils.UploadKind, filename string) string {
	folder := "photos"
	if kind == utils.UploadDocument {
		folder = "documents"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", folder, s.now().Format("2006/01"), uuid.NewString(), ext)
}
