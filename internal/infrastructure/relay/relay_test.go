package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMSSender_StripsCountryPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "sms-key", r.Header.Get("authorization"))
		var body smsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, smsRequest{Route: "otp", VariablesValues: "482913", Numbers: "9876543210"}, body)
		_, _ = w.Write([]byte(`{"return":true,"request_id":"abc","message":["SMS sent successfully."]}`))
	}))
	defer srv.Close()

	s := NewSMSSender(srv.URL, "sms-key", "otp", "91", time.Second)
	require.NoError(t, s.SendOTP(context.Background(), "+919876543210", "482913"))
}

func TestSMSSender_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"return":false,"status_code":412,"message":"Invalid Authentication"}`))
	}))
	defer srv.Close()

	s := NewSMSSender(srv.URL, "bad", "otp", "91", time.Second)
	err := s.SendOTP(context.Background(), "+919876543210", "482913")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Invalid Authentication")
}

func TestSMSSender_ReturnFalseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"return":false,"message":"Invalid Numbers"}`))
	}))
	defer srv.Close()

	s := NewSMSSender(srv.URL, "k", "otp", "91", time.Second)
	err := s.SendOTP(context.Background(), "+919876543210", "482913")
	assert.ErrorContains(t, err, "Invalid Numbers")
}

func TestEmailSender_PostsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mail-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body emailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Salem Farm <noreply@salemfarm.in>", body.From)
		assert.Equal(t, []string{"buyer@example.com"}, body.To)
		assert.Equal(t, "Your code", body.Subject)
		assert.Equal(t, "<p>123456</p>", body.HTML)
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	s := NewEmailSender(srv.URL, "mail-key", "Salem Farm <noreply@salemfarm.in>", time.Second)
	require.NoError(t, s.SendEmail(context.Background(), "buyer@example.com", "Your code", "<p>123456</p>"))
}

func TestEmailSender_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The from address is not verified"}`))
	}))
	defer srv.Close()

	s := NewEmailSender(srv.URL, "mail-key", "x@y.z", time.Second)
	err := s.SendEmail(context.Background(), "buyer@example.com", "s", "h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}

func TestSnippetTruncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, snippet(long), 200)
}
