package model

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:200;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Boards []Board `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
