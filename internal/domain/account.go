package domain

import "time"

// Account is the public view of a credential held by the identity provider.
type Account struct {
	ID        string    `json:"id" dynamodbav:"account_id" db:"account_id"`
	Email     string    `json:"email,omitempty" dynamodbav:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" dynamodbav:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at" db:"created_at"`
}

// LocalAccount is the row kept by the self-hosted account store.
type LocalAccount struct {
	Account
	Identifier   string    `json:"-" dynamodbav:"identifier" db:"identifier"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash" db:"password_hash"`
	UpdatedAt    time.Time `json:"-" dynamodbav:"updated_at" db:"updated_at"`
}
