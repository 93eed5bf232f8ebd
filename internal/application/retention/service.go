package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/logger"
)

type expirer interface {
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// Result reports what one purge removed.
type Result struct {
	Cutoff time.Time `json:"cutoff"`
	OTPs   int       `json:"otps"`
	Tokens int       `json:"tokens"`
}

type Service interface {
	Purge(ctx context.Context) (*Result, error)
}

type ServiceDeps struct {
	OTPRepo   expirer
	TokenRepo expirer
	Grace     time.Duration
	Now       func() time.Time
}

type service struct {
	otps   expirer
	tokens expirer
	grace  time.Duration
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{otps: deps.OTPRepo, tokens: deps.TokenRepo, grace: deps.Grace, now: deps.Now}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Purge removes OTP records and tokens that expired more than the grace
// period ago. Both ledgers are attempted even when one fails.
func (s *service) Purge(ctx context.Context) (*Result, error) {
	res := &Result{Cutoff: s.now().Add(-s.grace)}

	var errs []error
	n, err := s.otps.DeleteExpired(ctx, res.Cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("purge otps: %w", err))
	}
	res.OTPs = n

	n, err = s.tokens.DeleteExpired(ctx, res.Cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("purge tokens: %w", err))
	}
	res.Tokens = n

	log := logger.Log.WithFields(logrus.Fields{
		"cutoff": res.Cutoff.Format(time.RFC3339),
		"otps":   res.OTPs,
		"tokens": res.Tokens,
	})
	if err := errors.Join(errs...); err != nil {
		log.WithError(err).Error("retention purge failed")
		return res, err
	}
	log.Info("retention purge complete")
	return res, nil
}
