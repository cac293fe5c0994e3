package entities

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"not null" json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Password  string    `json:"-"`
	Role      string    `gorm:"default:user" json:"role"`

	Timestamp
}

// Follow marks that User follows Following. The pair is unique and the
// self-follow case is rejected before the row is ever written.
type Follow struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_follow_pair" json:"user_id"`
	FollowingID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_follow_pair" json:"following_id"`
	CreatedAt   time.Time `gorm:"type:timestamp" json:"created_at"`

	User      *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
}
