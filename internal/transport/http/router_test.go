package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/verification"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/config"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
	appmiddleware "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/transport/http/middleware"
)

// Every collaborator fails the test when touched.
type tripOTPs struct{ t *testing.T }

func (f tripOTPs) Put(context.Context, *domain.OTPRecord) error { f.t.Fatal("otp Put"); return nil }
func (f tripOTPs) ListUnverified(context.Context, string) ([]domain.OTPRecord, error) {
	f.t.Fatal("otp ListUnverified")
	return nil, nil
}
func (f tripOTPs) MarkVerified(context.Context, string, string) error {
	f.t.Fatal("otp MarkVerified")
	return nil
}
func (f tripOTPs) Delete(context.Context, string, string) error { f.t.Fatal("otp Delete"); return nil }
func (f tripOTPs) DeleteUnverified(context.Context, string) error {
	f.t.Fatal("otp DeleteUnverified")
	return nil
}

type tripTokens struct{ t *testing.T }

func (f tripTokens) Put(context.Context, *domain.VerificationToken) error {
	f.t.Fatal("token Put")
	return nil
}
func (f tripTokens) Get(context.Context, string) (*domain.VerificationToken, error) {
	f.t.Fatal("token Get")
	return nil, nil
}
func (f tripTokens) Claim(context.Context, string, time.Time) error { f.t.Fatal("token Claim"); return nil }
func (f tripTokens) Release(context.Context, string) error          { f.t.Fatal("token Release"); return nil }

type tripIdentity struct{ t *testing.T }

func (f tripIdentity) FindAccount(context.Context, domain.Identifier) (*domain.Account, error) {
	f.t.Fatal("FindAccount")
	return nil, nil
}
func (f tripIdentity) CreateAccount(context.Context, domain.Identifier, string) (*domain.Account, error) {
	f.t.Fatal("CreateAccount")
	return nil, nil
}
func (f tripIdentity) UpdatePassword(context.Context, string, string) error {
	f.t.Fatal("UpdatePassword")
	return nil
}

type tripSMS struct{ t *testing.T }

func (f tripSMS) SendOTP(context.Context, string, string) error { f.t.Fatal("SendOTP"); return nil }

func newTestRouter(t *testing.T, rl *appmiddleware.RateLimiter) http.Handler {
	t.Helper()
	svc := verification.NewService(verification.ServiceDeps{
		OTPRepo:     tripOTPs{t},
		TokenRepo:   tripTokens{t},
		Identity:    tripIdentity{t},
		SMSSender:   tripSMS{t},
		CountryCode: "91",
	})
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, &Deps{Verification: svc, RateLimiter: rl})
}

func TestRouter_MalformedPhoneRejectedWithoutSideEffects(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/request-otp",
		bytes.NewBufferString(`{"identifier":"12345","type":"phone","purpose":"signup"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestRouter_Ping(t *testing.T) {
	h := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}

func TestRouter_AdminRoutesAbsentWithoutJWT(t *testing.T) {
	h := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/admin/retention/run", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_AuthRoutesAreRateLimited(t *testing.T) {
	rl := appmiddleware.NewRateLimiter(rate.Every(time.Hour), 1)
	defer rl.Stop()
	h := newTestRouter(t, rl)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify-otp", bytes.NewBufferString(`{}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
