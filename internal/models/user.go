// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email        string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	DisplayName  string `json:"display_name" gorm:"size:100"`
	Phone        string `json:"phone" gorm:"size:30"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`
	// No column default: gorm skips zero-valued fields that carry one, which
	// would silently turn an explicit false into true on insert. Creation
	// paths set the flag explicitly.
	IsActive bool `json:"is_active"`

	// Relationships
	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
