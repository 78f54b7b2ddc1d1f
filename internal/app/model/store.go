package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

type StoreStatus string

const (
	StoreStatusActive   StoreStatus = "active"
	StoreStatusInactive StoreStatus = "inactive"
	StoreStatusArchived StoreStatus = "archived"
)

func (s StoreStatus) Valid() bool {
	switch s {
	case StoreStatusActive, StoreStatusInactive, StoreStatusArchived:
		return true
	}
	return false
}

type Store struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	Code        string      `gorm:"size:40;uniqueIndex;not null" json:"code"` // short human identifier, generated from name when empty
	Name        string      `gorm:"not null" json:"name"`
	Address     string      `gorm:"type:text" json:"address"`
	Phone       string      `gorm:"type:varchar(30)" json:"phone"`
	Email       string      `gorm:"type:varchar(255)" json:"email"`
	ContactName string      `gorm:"type:varchar(100)" json:"contact_name"`
	Status      StoreStatus `gorm:"type:varchar(20);default:'active';index;not null" json:"status"`
	Description string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}

var (
	codeInvalidChars = regexp.MustCompile(`[^A-Z0-9]+`)
	codeDashes       = regexp.MustCompile(`-+`)
)

// generateStoreCode builds an upper-case code such as "SHIBUYA-EAST" from a store name.
func generateStoreCode(name string) string {
	code := strings.ToUpper(strings.TrimSpace(name))
	code = codeInvalidChars.ReplaceAllString(code, "-")
	code = codeDashes.ReplaceAllString(code, "-")
	code = strings.Trim(code, "-")
	if code == "" {
		code = "STORE"
	}
	if len(code) > 32 {
		code = strings.TrimRight(code[:32], "-")
	}
	return code
}

// BeforeCreate fills Code from the name, suffixing a counter until it is unique.
func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.Status == "" {
		s.Status = StoreStatusActive
	}
	if s.Code != "" {
		s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
		return nil
	}

	base := generateStoreCode(s.Name)
	code := base
	for counter := 1; ; counter++ {
		var count int64
		if err := tx.Session(&gorm.Session{NewDB: true}).Model(&Store{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		code = fmt.Sprintf("%s-%d", base, counter+1)
	}
	s.Code = code
	return nil
}
