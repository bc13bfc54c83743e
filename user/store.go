package user

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/thebrando/brando/apperror"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	bcryptCost        = 10
	minPasswordLength = 8
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&User{})
}

// Create inserts u unless a user with the same email exists. The check and
// the insert are one statement, so concurrent duplicates cannot both land.
func (s *Store) Create(ctx context.Context, u *User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		return apperror.Invalidf("email is required")
	}
	if u.Role != "" && !u.Role.Valid() {
		return apperror.Invalidf("unknown role %q", u.Role)
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u)
	if res.Error != nil {
		return apperror.Upstreamf(res.Error, "create user %s", u.Email)
	}
	if res.RowsAffected == 0 {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Message: "user already exists",
			Status:  http.StatusBadRequest,
		}
	}
	return nil
}

func (s *Store) ByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf("user %s not found", email)
	}
	if err != nil {
		return nil, apperror.Upstreamf(err, "find user %s", email)
	}
	return &u, nil
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, apperror.Upstreamf(err, "list users")
	}
	return users, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&User{}).Count(&n).Error; err != nil {
		return 0, apperror.Upstreamf(err, "count users")
	}
	return n, nil
}

func (s *Store) SetRole(ctx context.Context, id string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, apperror.Invalidf("unknown role %q", role)
	}
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, apperror.Upstreamf(res.Error, "update user %s", id)
	}
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf("user %s not found", id)
	}
	if err != nil {
		return nil, apperror.Upstreamf(err, "find user %s", id)
	}
	return &u, nil
}

// IsAdmin reports false for unknown emails.
func (s *Store) IsAdmin(ctx context.Context, email string) (bool, error) {
	u, err := s.ByEmail(ctx, email)
	if apperror.Is(err, apperror.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == Admin, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperror.Invalidf("password must be at least %d characters", minPasswordLength)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperror.Invalidf("password is too long")
	}
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(b), nil
}

// Register creates a guest that can log in with password.
func (s *Store) Register(ctx context.Context, u *User, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash
	u.Role = Guest
	return s.Create(ctx, u)
}

// CheckPassword fails the same way for unknown emails, users without a
// password and wrong passwords.
func (s *Store) CheckPassword(ctx context.Context, email, password string) error {
	denied := apperror.InvalidCredentialf("invalid email or password")
	u, err := s.ByEmail(ctx, strings.TrimSpace(email))
	if apperror.Is(err, apperror.NotFound) {
		return denied
	}
	if err != nil {
		return err
	}
	if u.Password == "" || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return denied
	}
	return nil
}

// SeedAdmin makes sure email exists and holds the admin role. A non-empty
// password replaces the stored one; without it the admin can only use
// credentials minted by the token command.
func (s *Store) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	var hash string
	if password != "" {
		var err error
		if hash, err = hashPassword(password); err != nil {
			return err
		}
	}
	err := s.Create(ctx, &User{Email: email, Name: "Admin", Role: Admin, Password: hash})
	if err == nil || !apperror.Is(err, apperror.Conflict) {
		return err
	}
	updates := map[string]any{"role": Admin}
	if hash != "" {
		updates["password"] = hash
	}
	res := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Updates(updates)
	return apperror.Upstreamf(res.Error, "promote %s", email)
}
