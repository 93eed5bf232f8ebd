// Command admintoken mints an operator JWT for the admin endpoints.
// It reads the same JWT_* settings as the API and needs JWT_PRIVATE_KEY_PATH.
//
//	admintoken -subject ops@salemfarm.in [-expiry 30m]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/config"
	jwtinfra "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/jwt"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], config.Load(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "admintoken:", err)
		os.Exit(1)
	}
}

func run(args []string, cfg *config.Config, out io.Writer) error {
	fs := flag.NewFlagSet("admintoken", flag.ContinueOnError)
	subject := fs.String("subject", "", "operator identity recorded in the token (required)")
	expiry := fs.Duration("expiry", cfg.JWTExpiry, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("-subject is required")
	}
	if *expiry <= 0 {
		return errors.New("-expiry must be positive")
	}
	if cfg.JWTPrivateKeyPath == "" {
		return errors.New("JWT_PRIVATE_KEY_PATH is not set")
	}

	c := *cfg
	c.JWTExpiry = *expiry
	p, err := jwtinfra.NewProvider(&c)
	if err != nil {
		return err
	}
	tok, err := p.Sign(*subject, jwtinfra.RoleAdmin)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
