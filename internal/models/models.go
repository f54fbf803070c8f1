package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser     = "USER"
	RoleMerchant = "MERCHANT"
	RoleAdmin    = "ADMIN"
)

// ValidRole reports whether r is one of the three supported roles.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleMerchant || r == RoleAdmin
}

// User is the stored identity. Email is always persisted lowercased, so the
// unique index enforces case-insensitive uniqueness. PasswordHash is empty
// for identities created by an external provider.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Username     string    `gorm:"size:30;not null"              json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash"          json:"-"`
	Role         string    `gorm:"size:16;not null;default:USER" json:"role"`
	IsActive     bool      `gorm:"not null;default:true"         json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicUser is the externally visible projection of a User. It is built
// field by field, so the password hash cannot leak through serialization.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

const (
	TxnSucceeded = "SUCCEEDED"
	TxnDeclined  = "DECLINED"
)

// Transaction records one simulated payment. Amount is in minor units of
// Currency.
type Transaction struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	MerchantID    uuid.UUID `gorm:"type:uuid;index;not null"     json:"merchantId"`
	Amount        int64     `gorm:"not null"                     json:"amount"`
	Currency      string    `gorm:"size:3;not null"              json:"currency"`
	CustomerEmail string    `gorm:"size:255;not null"            json:"customerEmail"`
	Description   string    `gorm:"size:512"                     json:"description,omitempty"`
	Status        string    `gorm:"size:16;not null"             json:"status"`
	Reference     string    `gorm:"size:32;uniqueIndex;not null" json:"reference"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
