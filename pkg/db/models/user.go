package models

import (
	"time"

	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

// User is the storefront identity. Credential handling and session issuance
// live in the external auth service; the API only needs identity and role.
type User struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	FullName  string         `gorm:"column:full_name;not null"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
