package models

import (
	"strings"
	"time"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/validation"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"size:50;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

func (r SignupRequest) Validate() error {
	return validation.Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error {
	fields := validation.Fields(r)
	if len(fields) == 0 {
		return nil
	}
	err := apperr.Validation(fields)
	err.Message = "Email and password are required"
	return err
}

// ProfileUpdate carries the user fields that may change after signup. Nil
// means unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (p *ProfileUpdate) Validate() error {
	fields := map[string]string{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
		if msg, ok := validation.Var("name", name, "required,min=2,max=50"); !ok {
			fields["name"] = msg
		}
	}
	if p.Password != nil {
		if msg, ok := validation.Var("password", *p.Password, "required,min=6,max=72"); !ok {
			fields["password"] = msg
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (u *User) SetPassword(plain string, cost int) error {
	hashed, err := HashPassword(plain, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hashed
	return nil
}

// CheckPassword compares in constant time via bcrypt.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
