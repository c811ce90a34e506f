package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quillpost/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages accounts, credentials and admin user moderation.
type UserService struct {
	db *gorm.DB
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserQuery filters the admin user listing.
type UserQuery struct {
	Page   int
	Limit  int
	Search string
	Role   db.Role
	Active *bool
}

// UserPage is one page of users.
type UserPage struct {
	Users      []db.User  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// NewUserService creates a UserService.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Register creates a user with the default role. Emails are stored lower-cased.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*db.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      db.RoleUser,
		Active:    true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks an email/password pair. Deactivated accounts cannot sign in.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	var user db.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}
	return &user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns one page of users for the admin console, newest first.
func (s *UserService) List(ctx context.Context, admin Actor, q UserQuery) (*UserPage, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&db.User{})
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where(
			`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.Active != nil {
		query = query.Where("active = ?", *q.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	users := []db.User{}
	if err := query.Order("created_at DESC").Order("id DESC").
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &UserPage{Users: users, Pagination: NewPagination(q.Page, q.Limit, total)}, nil
}

// SetActive activates or deactivates a user. Admins cannot deactivate themselves.
func (s *UserService) SetActive(ctx context.Context, admin Actor, userID uint, active bool) (*db.User, error) {
	return s.moderate(ctx, admin, userID, "active", active)
}

// SetRole changes the role of a user. Admins cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, admin Actor, userID uint, role db.Role) (*db.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}
	return s.moderate(ctx, admin, userID, "role", role)
}

func (s *UserService) moderate(ctx context.Context, admin Actor, userID uint, column string, value interface{}) (*db.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if admin.UserID == userID {
		return nil, ErrSelfModeration
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update(column, value).Error; err != nil {
		return nil, fmt.Errorf("update user %s: %w", column, err)
	}
	return s.Get(ctx, userID)
}
