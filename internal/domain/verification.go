package domain

import (
	"fmt"
	"time"
)

// OTPRecord is one issued one-time code.
// Dynamo: PK identifier, SK otp_id (ULID, sorts by creation time).
// TTL is a Unix timestamp used as DynamoDB TTL; ExpiresAt is authoritative.
type OTPRecord struct {
	ID         string    `json:"id" dynamodbav:"otp_id" db:"id"`
	Identifier string    `json:"identifier" dynamodbav:"identifier" db:"identifier"`
	Channel    Channel   `json:"type" dynamodbav:"type" db:"type"`
	Purpose    Purpose   `json:"purpose" dynamodbav:"purpose" db:"purpose"`
	Code       string    `json:"-" dynamodbav:"code" db:"code"`
	Verified   bool      `json:"verified" dynamodbav:"verified" db:"verified"`
	ExpiresAt  time.Time `json:"expires_at" dynamodbav:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at" db:"created_at"`
	TTL        int64     `json:"-" dynamodbav:"ttl" db:"-"`
}

// ActiveAt reports whether the record can still be accepted at now.
func (o *OTPRecord) ActiveAt(now time.Time) bool {
	return !o.Verified && now.Before(o.ExpiresAt)
}

// VerificationToken is the single-use secret minted after a verified OTP.
// Dynamo: PK token.
type VerificationToken struct {
	Token      string     `json:"-" dynamodbav:"token" db:"token"`
	Identifier string     `json:"identifier" dynamodbav:"identifier" db:"identifier"`
	Purpose    Purpose    `json:"purpose" dynamodbav:"purpose" db:"purpose"`
	Used       bool       `json:"used" dynamodbav:"used" db:"used"`
	ExpiresAt  time.Time  `json:"expires_at" dynamodbav:"expires_at" db:"expires_at"`
	CreatedAt  time.Time  `json:"created_at" dynamodbav:"created_at" db:"created_at"`
	UsedAt     *time.Time `json:"used_at,omitempty" dynamodbav:"used_at,omitempty" db:"used_at"`
	TTL        int64      `json:"-" dynamodbav:"ttl" db:"-"`
}

// Accepts reports whether the token satisfies the consuming lookup predicate.
func (t *VerificationToken) Accepts(identifier string, purpose Purpose, now time.Time) bool {
	return !t.Used && t.Identifier == identifier && t.Purpose == purpose && now.Before(t.ExpiresAt)
}

// OTPMessage is the plain-text SMS body for senders that do not carry their
// own template.
func OTPMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your Salem Farm verification code is %s. It is valid for %s. Do not share it with anyone.", code, FormatValidity(ttl))
}

// FormatValidity renders a code lifetime for humans: whole minutes when the
// duration is a multiple of a minute, seconds otherwise.
func FormatValidity(ttl time.Duration) string {
	m := int(ttl / time.Minute)
	switch {
	case m == 0 || ttl%time.Minute != 0:
		return fmt.Sprintf("%d seconds", int(ttl/time.Second))
	case m == 1:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", m)
	}
}
