package accesscode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lyrion-studio/lyrion-api/models"
	"gorm.io/gorm"
)

// DBStore keeps codes in the access_codes table. Updates are conditional on
// the version column read beforehand.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Get(ctx context.Context, code string) (*Code, error) {
	row, err := s.load(ctx, Normalize(code))
	if err != nil {
		return nil, err
	}
	c := fromModel(row)
	return &c, nil
}

func (s *DBStore) Modify(ctx context.Context, code string, fn func(*Code) error) (*Code, error) {
	code = Normalize(code)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		row, err := s.load(ctx, code)
		if err != nil {
			return nil, err
		}
		c := fromModel(row)
		seen := len(c.Conversions)
		if err := fn(&c); err != nil {
			return nil, err
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.AccessCode{}).
				Where("code = ? AND version = ?", code, row.Version).
				Updates(map[string]any{
					"uses_remaining": c.UsesRemaining,
					"status":         string(c.Status),
					"version":        gorm.Expr("version + 1"),
					"updated_at":     time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}
			for _, conv := range c.Conversions[seen:] {
				if err := tx.Create(&models.AccessCodeConversion{
					ID:         conv.ID,
					Code:       code,
					SessionID:  conv.SessionID,
					Amount:     conv.Amount,
					RedeemedAt: conv.RedeemedAt,
				}).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update access code: %w", err)
		}
		return &c, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrConflict, maxAttempts)
}

// Put inserts or replaces a code definition (admin import and tests).
// Existing conversions are kept.
func (s *DBStore) Put(ctx context.Context, c Code) error {
	row := models.AccessCode{
		Code:            Normalize(c.Code),
		Owner:           c.Owner,
		DiscountPercent: c.DiscountPercent,
		ExpiresAt:       c.ExpiresAt,
		UsesRemaining:   c.UsesRemaining,
		Status:          string(c.Status),
		Version:         1,
	}
	if row.Status == "" {
		row.Status = string(StatusActive)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AccessCode
		err := tx.Where("code = ?", row.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&models.AccessCode{}).
			Where("code = ?", row.Code).
			Updates(map[string]any{
				"owner":            row.Owner,
				"discount_percent": row.DiscountPercent,
				"expires_at":       row.ExpiresAt,
				"uses_remaining":   row.UsesRemaining,
				"status":           row.Status,
				"version":          gorm.Expr("version + 1"),
				"updated_at":       time.Now(),
			}).Error
	})
}

// Import loads every code from a shared document.
func (s *DBStore) Import(ctx context.Context, doc Document) (int, error) {
	for _, c := range doc.Codes {
		if err := s.Put(ctx, c); err != nil {
			return 0, fmt.Errorf("import %s: %w", c.Code, err)
		}
	}
	return len(doc.Codes), nil
}

func (s *DBStore) load(ctx context.Context, code string) (*models.AccessCode, error) {
	var row models.AccessCode
	err := s.db.WithContext(ctx).
		Preload("Conversions", func(db *gorm.DB) *gorm.DB { return db.Order("redeemed_at ASC") }).
		Where("code = ?", code).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load access code: %w", err)
	}
	return &row, nil
}

func fromModel(row *models.AccessCode) Code {
	c := Code{
		Code:            row.Code,
		Owner:           row.Owner,
		DiscountPercent: row.DiscountPercent,
		ExpiresAt:       row.ExpiresAt,
		UsesRemaining:   row.UsesRemaining,
		Status:          Status(row.Status),
	}
	for _, conv := range row.Conversions {
		c.Conversions = append(c.Conversions, Conversion{
			ID:         conv.ID,
			SessionID:  conv.SessionID,
			Amount:     conv.Amount,
			RedeemedAt: conv.RedeemedAt,
		})
	}
	return c
}
