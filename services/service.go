package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/events"
	"github.com/kendall-kelly/door-production-api/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// base holds what every domain service needs.
type base struct {
	db     *gorm.DB
	events events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

func newBase(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) base {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		db:     db,
		events: publisher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source, for tests.
func (b *base) SetClock(now func() time.Time) {
	b.now = func() time.Time { return now().UTC() }
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) {}

// dbError maps a storage error to the error taxonomy.
func dbError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound("%s not found", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict("%s already exists", entity)
	}
	return apperrors.Internal("failed to access "+entity, err)
}

// logActivity writes an audit row inside tx.
func logActivity(tx *gorm.DB, actor models.Actor, orderID *uint, action string, details map[string]interface{}) error {
	entry := models.ActivityLog{
		UserID:  actor.UserID,
		OrderID: orderID,
		Action:  action,
		Details: datatypes.JSONMap(details),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return apperrors.Internal("failed to write activity log", err)
	}
	return nil
}

func requireOffice(actor models.Actor, action string) error {
	if !actor.IsOffice() {
		return apperrors.Unauthorized("only office staff can %s", action)
	}
	return nil
}

func requireOperator(actor models.Actor, action string) error {
	if !actor.IsOperator() {
		return apperrors.Unauthorized("only operators can %s", action)
	}
	return nil
}

// photoList converts request photo keys into the stored column value.
func photoList(photos []string) datatypes.JSONSlice[string] {
	if len(photos) == 0 {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](photos)
}

func checkPhotos(photos []string, max int) error {
	if len(photos) > max {
		return apperrors.Validation("at most %d photos are allowed", max)
	}
	for _, p := range photos {
		if p == "" {
			return apperrors.Validation("photo keys must not be empty")
		}
	}
	return nil
}

func uintPtr(v uint) *uint {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// sortedKeys returns the column names of an update map, for audit details.
func sortedKeys(updates map[string]interface{}) []string {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
