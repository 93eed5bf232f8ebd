package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/pkg/validate"
)

// Channel is the delivery channel of an identifier.
type Channel string

const (
	ChannelPhone Channel = "phone"
	ChannelEmail Channel = "email"
)

// Purpose scopes an OTP or verification token to one downstream action.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeReset  Purpose = "reset"
)

// ParsePurpose rejects anything outside the enumerated purposes.
func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(s); p {
	case PurposeSignup, PurposeReset:
		return p, nil
	}
	return "", fmt.Errorf("purpose must be signup or reset: %w", ErrBadRequest)
}

// ParseChannel rejects anything outside the enumerated channels.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelPhone, ChannelEmail:
		return c, nil
	}
	return "", fmt.Errorf("type must be phone or email: %w", ErrBadRequest)
}

// InferChannel guesses the channel for requests that do not carry a type.
func InferChannel(raw string) Channel {
	if strings.Contains(raw, "@") {
		return ChannelEmail
	}
	return ChannelPhone
}

var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// Identifier is a normalized phone number or email address. Value is the
// only form ever written to or looked up in a ledger.
type Identifier struct {
	Channel Channel
	Value   string
}

func (id Identifier) String() string { return id.Value }

// IsPhone reports whether the identifier is a phone number.
func (id Identifier) IsPhone() bool { return id.Channel == ChannelPhone }

// LocalNumber returns the phone number without the "+<country>" prefix.
// Empty for email identifiers.
func (id Identifier) LocalNumber(countryCode string) string {
	if !id.IsPhone() {
		return ""
	}
	return strings.TrimPrefix(id.Value, "+"+countryCode)
}

// ParseIdentifier validates raw against the channel's shape and normalizes
// it. Phones must be 10 digits starting 6-9 and get "+<countryCode>"
// prepended; emails are trimmed and lower-cased.
func ParseIdentifier(channel Channel, raw, countryCode string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, fmt.Errorf("identifier required: %w", ErrBadRequest)
	}
	switch channel {
	case ChannelPhone:
		if !phonePattern.MatchString(raw) {
			return Identifier{}, fmt.Errorf("invalid phone number: %w", ErrBadRequest)
		}
		return Identifier{Channel: ChannelPhone, Value: "+" + countryCode + raw}, nil
	case ChannelEmail:
		email := strings.ToLower(raw)
		if !validate.Email(email) {
			return Identifier{}, fmt.Errorf("invalid email address: %w", ErrBadRequest)
		}
		return Identifier{Channel: ChannelEmail, Value: email}, nil
	}
	return Identifier{}, fmt.Errorf("type must be phone or email: %w", ErrBadRequest)
}
