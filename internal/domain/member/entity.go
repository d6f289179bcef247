// internal/domain/member/entity.go
package member

import (
	"time"

	"gorm.io/gorm"
)

// Member represents a bookstore member account. Membership drives the
// member pricing tier at checkout.
type Member struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name         string         `gorm:"not null;size:255" json:"name"`
	PasswordHash string         `gorm:"not null;size:255" json:"-"`
	IsStaff      bool           `gorm:"default:false" json:"is_staff"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	JoinedAt     time.Time      `json:"joined_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Member) TableName() string {
	return "members"
}
