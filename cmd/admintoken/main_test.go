package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/config"
	jwtinfra "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/jwt"
)

func keyConfig(t *testing.T) *config.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	dir := t.TempDir()

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPath := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}), 0600))

	privPath := filepath.Join(dir, "private.pem")
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	return &config.Config{JWTPublicKeyPath: pubPath, JWTPrivateKeyPath: privPath, JWTExpiry: time.Hour}
}

func TestRun_MintsVerifiableAdminToken(t *testing.T) {
	cfg := keyConfig(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"-subject", "ops@salemfarm.in", "-expiry", "10m"}, cfg, &out))

	verifier, err := jwtinfra.NewProvider(&config.Config{JWTPublicKeyPath: cfg.JWTPublicKeyPath})
	require.NoError(t, err)
	claims, err := verifier.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops@salemfarm.in", claims.Subject)
	assert.Equal(t, jwtinfra.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestRun_RequiresSubject(t *testing.T) {
	err := run(nil, keyConfig(t), &bytes.Buffer{})
	assert.ErrorContains(t, err, "-subject is required")
}

func TestRun_RequiresPrivateKey(t *testing.T) {
	cfg := keyConfig(t)
	cfg.JWTPrivateKeyPath = ""
	err := run([]string{"-subject", "ops"}, cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "JWT_PRIVATE_KEY_PATH")
}
