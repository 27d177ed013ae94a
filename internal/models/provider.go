package models

import (
	"time"
)

// Provider represents a course provider. The ID is the chosen username and
// doubles as the storage key, so it must be globally unique.
type Provider struct {
	ID            string    `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	DisplayName   string    `json:"display_name" db:"display_name"`
	Bio           *string   `json:"bio,omitempty" db:"bio"`
	LinkedIn      *string   `json:"linkedin,omitempty" db:"linkedin"`
	Twitter       *string   `json:"twitter,omitempty" db:"twitter"`
	AvatarURL     string    `json:"avatar_url" db:"avatar_url"`
	WalletAddress *string   `json:"wallet_address,omitempty" db:"wallet_address"`
	LearnBalance  int64     `json:"learn_balance" db:"learn_balance"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
