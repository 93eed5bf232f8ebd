package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/logger"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/pkg/id"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/pkg/token"
)

const (
	defaultOTPTTL   = 5 * time.Minute
	defaultTokenTTL = 15 * time.Minute
	minPasswordLen  = 6
	maxPasswordLen  = 72 // bcrypt input limit
)

var (
	errInvalidOTP   = fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	errInvalidToken = fmt.Errorf("invalid or expired verification token: %w", domain.ErrBadRequest)
)

type RequestOTPRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Type       string `json:"type" validate:"required"`
	Purpose    string `json:"purpose" validate:"required"`
}

type VerifyOTPRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Code       string `json:"code" validate:"required"`
	Purpose    string `json:"purpose" validate:"required"`
}

type SignupRequest struct {
	Identifier        string `json:"identifier" validate:"required"`
	Password          string `json:"password" validate:"required"`
	VerificationToken string `json:"verificationToken" validate:"required"`
	Type              string `json:"type" validate:"required"`
}

type ResetPasswordRequest struct {
	Identifier        string `json:"identifier" validate:"required"`
	NewPassword       string `json:"newPassword" validate:"required"`
	VerificationToken string `json:"verificationToken" validate:"required"`
}

type Service interface {
	RequestOTP(ctx context.Context, req RequestOTPRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (string, error)
	Signup(ctx context.Context, req SignupRequest) (*domain.Account, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type otpStore interface {
	Put(ctx context.Context, o *domain.OTPRecord) error
	// ListUnverified returns the identifier's unverified records, newest first.
	ListUnverified(ctx context.Context, identifier string) ([]domain.OTPRecord, error)
	// MarkVerified returns domain.ErrConflict when the record is already verified.
	MarkVerified(ctx context.Context, identifier, otpID string) error
	Delete(ctx context.Context, identifier, otpID string) error
	DeleteUnverified(ctx context.Context, identifier string) error
}

type tokenStore interface {
	Put(ctx context.Context, t *domain.VerificationToken) error
	Get(ctx context.Context, tok string) (*domain.VerificationToken, error)
	// Claim flips used to true and returns domain.ErrConflict when it already was.
	Claim(ctx context.Context, tok string, at time.Time) error
	Release(ctx context.Context, tok string) error
}

type identityProvider interface {
	FindAccount(ctx context.Context, ident domain.Identifier) (*domain.Account, error)
	CreateAccount(ctx context.Context, ident domain.Identifier, password string) (*domain.Account, error)
	UpdatePassword(ctx context.Context, accountID, password string) error
}

type smsSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

type emailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

type ServiceDeps struct {
	OTPRepo     otpStore
	TokenRepo   tokenStore
	Identity    identityProvider
	SMSSender   smsSender
	EmailSender emailSender
	CountryCode string
	OTPTTL      time.Duration
	TokenTTL    time.Duration
	Now         func() time.Time
}

type service struct {
	otps        otpStore
	tokens      tokenStore
	identity    identityProvider
	sms         smsSender
	email       emailSender
	countryCode string
	otpTTL      time.Duration
	tokenTTL    time.Duration
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		otps:        deps.OTPRepo,
		tokens:      deps.TokenRepo,
		identity:    deps.Identity,
		sms:         deps.SMSSender,
		email:       deps.EmailSender,
		countryCode: deps.CountryCode,
		otpTTL:      deps.OTPTTL,
		tokenTTL:    deps.TokenTTL,
		now:         deps.Now,
	}
	if s.otpTTL <= 0 {
		s.otpTTL = defaultOTPTTL
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultTokenTTL
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *service) RequestOTP(ctx context.Context, req RequestOTPRequest) error {
	channel, err := domain.ParseChannel(req.Type)
	if err != nil {
		return err
	}
	purpose, err := domain.ParsePurpose(req.Purpose)
	if err != nil {
		return err
	}
	ident, err := domain.ParseIdentifier(channel, req.Identifier, s.countryCode)
	if err != nil {
		return err
	}
	log := logFields(ident, purpose)

	if err := s.checkAccount(ctx, ident, purpose); err != nil {
		return err
	}

	code, err := token.NewOTP()
	if err != nil {
		log.WithError(err).Error("otp generation failed")
		return fmt.Errorf("failed to generate OTP: %w", domain.ErrInternal)
	}
	now := s.now()
	rec := &domain.OTPRecord{
		ID:         id.New(),
		Identifier: ident.Value,
		Channel:    ident.Channel,
		Purpose:    purpose,
		Code:       code,
		ExpiresAt:  now.Add(s.otpTTL),
		CreatedAt:  now,
	}
	rec.TTL = rec.ExpiresAt.Unix()

	// A stale code left actionable next to the new one would be ambiguous.
	if err := s.otps.DeleteUnverified(ctx, ident.Value); err != nil {
		log.WithError(err).Error("failed to clear previous OTPs")
		return fmt.Errorf("failed to store OTP: %w", domain.ErrInternal)
	}
	if err := s.otps.Put(ctx, rec); err != nil {
		log.WithError(err).Error("failed to store OTP")
		return fmt.Errorf("failed to store OTP: %w", domain.ErrInternal)
	}

	if err := s.dispatch(ctx, ident, code); err != nil {
		log.WithError(err).Error("OTP dispatch failed, withdrawing code")
		if delErr := s.otps.Delete(ctx, ident.Value, rec.ID); delErr != nil {
			log.WithError(delErr).Error("failed to withdraw undelivered OTP")
		}
		return fmt.Errorf("failed to send OTP: %w", domain.ErrInternal)
	}

	log.Info("otp issued")
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (string, error) {
	purpose, err := domain.ParsePurpose(req.Purpose)
	if err != nil {
		return "", err
	}
	ident, err := domain.ParseIdentifier(domain.InferChannel(req.Identifier), req.Identifier, s.countryCode)
	if err != nil {
		return "", err
	}
	if req.Code == "" {
		return "", fmt.Errorf("code required: %w", domain.ErrBadRequest)
	}
	log := logFields(ident, purpose)

	recs, err := s.otps.ListUnverified(ctx, ident.Value)
	if err != nil {
		log.WithError(err).Error("failed to look up OTPs")
		return "", fmt.Errorf("failed to verify OTP: %w", domain.ErrInternal)
	}
	now := s.now()
	var match *domain.OTPRecord
	for i := range recs {
		r := &recs[i]
		if r.Code == req.Code && r.Purpose == purpose && r.ActiveAt(now) {
			match = r
			break
		}
	}
	if match == nil {
		log.Info("otp rejected")
		return "", errInvalidOTP
	}

	if err := s.otps.MarkVerified(ctx, ident.Value, match.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", errInvalidOTP
		}
		log.WithError(err).Error("failed to mark OTP verified")
		return "", fmt.Errorf("failed to verify OTP: %w", domain.ErrInternal)
	}

	tok, err := token.NewVerificationToken()
	if err != nil {
		log.WithError(err).Error("token generation failed")
		return "", fmt.Errorf("failed to create verification token: %w", domain.ErrInternal)
	}
	vt := &domain.VerificationToken{
		Token:      tok,
		Identifier: ident.Value,
		Purpose:    purpose,
		ExpiresAt:  now.Add(s.tokenTTL),
		CreatedAt:  now,
	}
	vt.TTL = vt.ExpiresAt.Unix()
	if err := s.tokens.Put(ctx, vt); err != nil {
		log.WithError(err).Error("failed to store verification token")
		return "", fmt.Errorf("failed to create verification token: %w", domain.ErrInternal)
	}

	log.Info("otp verified")
	return tok, nil
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*domain.Account, error) {
	channel, err := domain.ParseChannel(req.Type)
	if err != nil {
		return nil, err
	}
	ident, err := domain.ParseIdentifier(channel, req.Identifier, s.countryCode)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}
	log := logFields(ident, domain.PurposeSignup)

	vt, err := s.claimToken(ctx, req.VerificationToken, ident, domain.PurposeSignup)
	if err != nil {
		return nil, err
	}

	acct, err := s.identity.CreateAccount(ctx, ident, req.Password)
	if err != nil {
		log.WithError(err).Error("account creation failed")
		s.releaseToken(ctx, vt, log)
		return nil, fmt.Errorf("failed to create account: %s: %w", err.Error(), domain.ErrInternal)
	}

	log.WithField("account_id", acct.ID).Info("account created")
	return acct, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	ident, err := domain.ParseIdentifier(domain.InferChannel(req.Identifier), req.Identifier, s.countryCode)
	if err != nil {
		return err
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}
	log := logFields(ident, domain.PurposeReset)

	vt, err := s.claimToken(ctx, req.VerificationToken, ident, domain.PurposeReset)
	if err != nil {
		return err
	}

	acct, err := s.identity.FindAccount(ctx, ident)
	if err != nil {
		s.releaseToken(ctx, vt, log)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("account not found: %w", domain.ErrNotFound)
		}
		log.WithError(err).Error("account lookup failed")
		return fmt.Errorf("failed to look up account: %s: %w", err.Error(), domain.ErrInternal)
	}
	if err := s.identity.UpdatePassword(ctx, acct.ID, req.NewPassword); err != nil {
		log.WithError(err).Error("password update failed")
		s.releaseToken(ctx, vt, log)
		return fmt.Errorf("failed to update password: %s: %w", err.Error(), domain.ErrInternal)
	}

	log.WithField("account_id", acct.ID).Info("password reset")
	return nil
}

// checkAccount enforces the existence precondition of each purpose.
func (s *service) checkAccount(ctx context.Context, ident domain.Identifier, purpose domain.Purpose) error {
	_, err := s.identity.FindAccount(ctx, ident)
	switch {
	case err == nil:
		if purpose == domain.PurposeSignup {
			return fmt.Errorf("account already exists, please log in: %w", domain.ErrConflict)
		}
		return nil
	case errors.Is(err, domain.ErrNotFound):
		if purpose == domain.PurposeReset {
			return fmt.Errorf("no account found for this %s: %w", ident.Channel, domain.ErrNotFound)
		}
		return nil
	default:
		logFields(ident, purpose).WithError(err).Error("account lookup failed")
		return fmt.Errorf("failed to look up account: %w", domain.ErrInternal)
	}
}

func (s *service) dispatch(ctx context.Context, ident domain.Identifier, code string) error {
	if ident.IsPhone() {
		if s.sms == nil {
			return errors.New("no SMS sender configured")
		}
		return s.sms.SendOTP(ctx, ident.Value, code)
	}
	if s.email == nil {
		return errors.New("no email sender configured")
	}
	return s.email.SendEmail(ctx, ident.Value, otpEmailSubject, renderOTPEmail(code, s.otpTTL))
}

// claimToken checks the lookup predicate and then atomically marks the token
// used, so at most one caller proceeds to the credential mutation.
func (s *service) claimToken(ctx context.Context, raw string, ident domain.Identifier, purpose domain.Purpose) (*domain.VerificationToken, error) {
	if raw == "" {
		return nil, errInvalidToken
	}
	vt, err := s.tokens.Get(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidToken
		}
		logFields(ident, purpose).WithError(err).Error("failed to look up verification token")
		return nil, fmt.Errorf("failed to check verification token: %w", domain.ErrInternal)
	}
	now := s.now()
	if !vt.Accepts(ident.Value, purpose, now) {
		return nil, errInvalidToken
	}
	if err := s.tokens.Claim(ctx, raw, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, errInvalidToken
		}
		logFields(ident, purpose).WithError(err).Error("failed to consume verification token")
		return nil, fmt.Errorf("failed to check verification token: %w", domain.ErrInternal)
	}
	return vt, nil
}

// releaseToken hands a claimed token back after a failed mutation so the
// caller can retry inside the token's validity window.
func (s *service) releaseToken(ctx context.Context, vt *domain.VerificationToken, log *logrus.Entry) {
	if err := s.tokens.Release(ctx, vt.Token); err != nil {
		log.WithError(err).Error("failed to release verification token")
	}
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen || len(pw) > maxPasswordLen {
		return fmt.Errorf("password must be between %d and %d characters: %w", minPasswordLen, maxPasswordLen, domain.ErrBadRequest)
	}
	return nil
}

func logFields(ident domain.Identifier, purpose domain.Purpose) *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"identifier": mask(ident.Value),
		"channel":    ident.Channel,
		"purpose":    purpose,
	})
}

// mask keeps the last four characters of an identifier for log correlation.
func mask(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
