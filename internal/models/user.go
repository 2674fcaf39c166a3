package models

import (
	"time"
)

// User mirrors an identity-provider account locally. Display fields
// (username, image) are always read live from the provider.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64);column:id" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;column:email" json:"email"`
	FirstName *string   `gorm:"type:varchar(255);column:first_name" json:"firstName"`
	LastName  *string   `gorm:"type:varchar(255);column:last_name" json:"lastName"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// All lists every model for schema migration
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Tag{}, &PostTag{}, &Comment{}, &Like{}}
}
