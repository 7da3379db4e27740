package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents a vault account. Authentication flows live outside this
// service; the model carries only what backup scoping and the export
// manifest need.
type User struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Email         string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username      string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Password      string    `gorm:"size:255" json:"-"` // Never expose in JSON
	EmailVerified bool      `gorm:"default:false" json:"email_verified"`
	IsStaff       bool      `gorm:"default:false" json:"is_staff"`
	IsSuperuser   bool      `gorm:"default:false" json:"is_superuser"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// SetPassword hashes and sets the user password
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword verifies if the provided password is correct
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
