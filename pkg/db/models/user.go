package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
)

// User is a marketplace participant: a member, a distributor, or an admin.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name         string          `gorm:"column:name;not null"`
	BusinessName *string         `gorm:"column:business_name"`
	Role         enums.ActorType `gorm:"column:role;type:text;not null;default:'member'"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayName prefers the business name when one is on file.
func (u User) DisplayName() string {
	if u.BusinessName != nil && *u.BusinessName != "" {
		return *u.BusinessName
	}
	return u.Name
}
