package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MaxNotePhotos = 10

// AddNoteInput is a new comment on an order.
type AddNoteInput struct {
	Text   string   `json:"text" binding:"required,max=1000"`
	Photos []string `json:"photos" binding:"omitempty,max=10,dive,required"`
}

// NoteService appends and lists order notes.
type NoteService struct {
	base
}

func NewNoteService(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) *NoteService {
	return &NoteService{base: newBase(db, publisher, logger)}
}

// Add appends a note to an order. Any authenticated user may comment.
func (s *NoteService) Add(ctx context.Context, actor models.Actor, orderID uint, in AddNoteInput) (*models.Note, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, apperrors.Validation("text is required")
	}
	if len([]rune(text)) > 1000 {
		return nil, apperrors.Validation("text must be at most 1000 characters")
	}
	if err := checkPhotos(in.Photos, MaxNotePhotos); err != nil {
		return nil, err
	}

	note := models.Note{
		OrderID:  orderID,
		AuthorID: actor.UserID,
		Text:     text,
		Photos:   photoList(in.Photos),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOrderExists(tx, orderID); err != nil {
			return err
		}
		if err := tx.Create(&note).Error; err != nil {
			return dbError(err, "note")
		}
		return logActivity(tx, actor, &orderID, models.ActionNoteAdded, map[string]interface{}{
			"note_id": note.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Note added", zap.Uint("note_id", note.ID), zap.Uint("order_id", orderID), zap.Uint("user_id", actor.UserID))

	var created models.Note
	if err := s.db.WithContext(ctx).Preload("Author").First(&created, note.ID).Error; err != nil {
		return nil, dbError(err, "note")
	}
	return &created, nil
}

// List returns an order's notes, newest first.
func (s *NoteService) List(ctx context.Context, orderID uint, p utils.Pagination) ([]models.Note, utils.PaginationMeta, error) {
	if err := ensureOrderExists(s.db.WithContext(ctx), orderID); err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	page := p.Normalize(50, 100)

	query := s.db.WithContext(ctx).Model(&models.Note{}).Where("order_id = ?", orderID).Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PaginationMeta{}, dbError(err, "note")
	}

	var notes []models.Note
	if err := page.Scope(query).Preload("Author").Order("created_at DESC, id DESC").Find(&notes).Error; err != nil {
		return nil, utils.PaginationMeta{}, dbError(err, "note")
	}
	return notes, page.Meta(total), nil
}
