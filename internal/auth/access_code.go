package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessCode gates student sign-in. Professors hand out a fresh code each
// week; codes expire after AccessCodeValidity.
type AccessCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Note      string    `gorm:"size:128" json:"note"` // e.g. "week 6"
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

const AccessCodeValidity = 7 * 24 * time.Hour

var ErrInvalidAccessCode = errors.New("access code invalid or expired")

// NewAccessCode creates and stores a weekly access code.
func NewAccessCode(db *gorm.DB, note string) (*AccessCode, error) {
	code := AccessCode{
		Code:      "ECO-" + strings.ToUpper(uuid.New().String()[:8]),
		Note:      note,
		ExpiresAt: time.Now().Add(AccessCodeValidity),
	}
	if err := db.Create(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// ValidateAccessCode checks that a code exists and has not expired.
func ValidateAccessCode(db *gorm.DB, code string) error {
	var ac AccessCode
	err := db.Where("code = ?", strings.TrimSpace(code)).First(&ac).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidAccessCode
		}
		return err
	}
	if time.Now().After(ac.ExpiresAt) {
		return ErrInvalidAccessCode
	}
	return nil
}

// ListAccessCodes returns codes newest first so the dashboard can show the
// current one on top.
func ListAccessCodes(db *gorm.DB) ([]AccessCode, error) {
	var codes []AccessCode
	if err := db.Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
