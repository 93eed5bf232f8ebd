package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/verification"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

// --- mock ---

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) RequestOTP(ctx context.Context, req verification.RequestOTPRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockVerificationSvc) VerifyOTP(ctx context.Context, req verification.VerifyOTPRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockVerificationSvc) Signup(ctx context.Context, req verification.SignupRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) ResetPassword(ctx context.Context, req verification.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

// --- helpers ---

func post(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, ResultEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)

	var env ResultEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

// --- tests ---

func TestRequestOTP_Success(t *testing.T) {
	svc := &mockVerificationSvc{}
	want := verification.RequestOTPRequest{Identifier: "9876543210", Type: "phone", Purpose: "signup"}
	svc.On("RequestOTP", mock.Anything, want).Return(nil)

	rr, env := post(t, NewVerificationHandler(svc).RequestOTP, `{"identifier":"9876543210","type":"phone","purpose":"signup"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Empty(t, env.VerificationToken)
	svc.AssertExpectations(t)
}

func TestRequestOTP_MissingFieldIs400WithoutServiceCall(t *testing.T) {
	svc := &mockVerificationSvc{}

	rr, env := post(t, NewVerificationHandler(svc).RequestOTP, `{"identifier":"9876543210","type":"phone"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "Purpose")
	svc.AssertNotCalled(t, "RequestOTP", mock.Anything, mock.Anything)
}

func TestRequestOTP_MalformedJSONIs400(t *testing.T) {
	svc := &mockVerificationSvc{}

	rr, env := post(t, NewVerificationHandler(svc).RequestOTP, `{"identifier":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid request body", env.Error)
}

func TestRequestOTP_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("phone must be 10 digits: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("account already exists, please log in: %w", domain.ErrConflict), http.StatusConflict},
		{fmt.Errorf("no account found for this email: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("failed to send OTP: %w", domain.ErrInternal), http.StatusInternalServerError},
	}
	for _, c := range cases {
		svc := &mockVerificationSvc{}
		svc.On("RequestOTP", mock.Anything, mock.Anything).Return(c.err)

		rr, env := post(t, NewVerificationHandler(svc).RequestOTP, `{"identifier":"x","type":"phone","purpose":"signup"}`)
		assert.Equal(t, c.status, rr.Code, c.err.Error())
		assert.False(t, env.Success)
		assert.Equal(t, c.err.Error(), env.Error)
	}
}

func TestVerifyOTP_ReturnsToken(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("VerifyOTP", mock.Anything, verification.VerifyOTPRequest{Identifier: "buyer@example.com", Code: "123456", Purpose: "reset"}).
		Return("abc123", nil)

	rr, env := post(t, NewVerificationHandler(svc).VerifyOTP, `{"identifier":"buyer@example.com","code":"123456","purpose":"reset"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "abc123", env.VerificationToken)
}

func TestVerifyOTP_InvalidCodeIs400(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("VerifyOTP", mock.Anything, mock.Anything).Return("", fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest))

	rr, env := post(t, NewVerificationHandler(svc).VerifyOTP, `{"identifier":"9876543210","code":"000000","purpose":"signup"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, env.Error, "invalid or expired OTP")
}

func TestSignup_ReturnsUser(t *testing.T) {
	svc := &mockVerificationSvc{}
	req := verification.SignupRequest{Identifier: "9876543210", Password: "Secret123", VerificationToken: "tok", Type: "phone"}
	svc.On("Signup", mock.Anything, req).Return(&domain.Account{ID: "u1", Phone: "+919876543210"}, nil)

	rr, env := post(t, NewVerificationHandler(svc).Signup, `{"identifier":"9876543210","password":"Secret123","verificationToken":"tok","type":"phone"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, env.User)
	assert.Equal(t, "u1", env.User.ID)
	assert.Equal(t, "+919876543210", env.User.Phone)
}

func TestSignup_MissingTokenIs400(t *testing.T) {
	svc := &mockVerificationSvc{}

	rr, _ := post(t, NewVerificationHandler(svc).Signup, `{"identifier":"9876543210","password":"Secret123","type":"phone"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestResetPassword_Success(t *testing.T) {
	svc := &mockVerificationSvc{}
	req := verification.ResetPasswordRequest{Identifier: "buyer@example.com", NewPassword: "NewSecret1", VerificationToken: "tok"}
	svc.On("ResetPassword", mock.Anything, req).Return(nil)

	rr, env := post(t, NewVerificationHandler(svc).ResetPassword, `{"identifier":"buyer@example.com","newPassword":"NewSecret1","verificationToken":"tok"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.User)
}

func TestResetPassword_ProviderFailureIs500(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("ResetPassword", mock.Anything, mock.Anything).
		Return(fmt.Errorf("failed to update password: upstream 503: %w", domain.ErrInternal))

	rr, env := post(t, NewVerificationHandler(svc).ResetPassword, `{"identifier":"buyer@example.com","newPassword":"NewSecret1","verificationToken":"tok"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, env.Error, "upstream 503")
}

func TestStatusFor_Unwrapped(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
	assert.Equal(t, http.StatusUnauthorized, statusFor(domain.ErrUnauthorized))
	assert.Equal(t, http.StatusForbidden, statusFor(domain.ErrForbidden))
}
