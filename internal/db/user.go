package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role is the authorization role carried by a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User 定义了用户模型
type User struct {
	gorm.Model
	Email     string `gorm:"size:255;unique;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `gorm:"size:50" json:"firstName"`
	LastName  string `gorm:"size:50" json:"lastName"`
	Role      Role   `gorm:"size:10;not null;default:user" json:"role"`
	Active    bool   `gorm:"not null;default:true" json:"active"`
}

// DisplayName joins first and last name, falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// EnsureAdmin creates an admin account with a bcrypt hash when email and password are
// both set and no user with that email exists yet. An existing account is promoted.
func EnsureAdmin(gdb *gorm.DB, email, password string) error {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{
			Email:     trimmedEmail,
			Password:  string(hashed),
			FirstName: "Admin",
			Role:      RoleAdmin,
			Active:    true,
		}).Error
	}

	if existing.Role == RoleAdmin {
		return nil
	}
	return gdb.Model(&existing).Update("role", RoleAdmin).Error
}
