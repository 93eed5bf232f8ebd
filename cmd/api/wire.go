package main

import (
	"context"
	"fmt"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/retention"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/verification"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/config"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/dynamo"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/identity"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/postgres"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/relay"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/sendgrid"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/smtp"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/sns"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/twilio"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/logger"
)

// wireLedger opens the configured ledger backend and fills in the repos
// both services need. The local identity provider shares the same store.
func wireLedger(ctx context.Context, cfg *config.Config, vdeps *verification.ServiceDeps, rdeps *retention.ServiceDeps) (func(), error) {
	local := cfg.IdentityBackend == config.IdentityLocal

	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		otps, tokens := postgres.NewOTPRepo(db), postgres.NewTokenRepo(db)
		vdeps.OTPRepo, vdeps.TokenRepo = otps, tokens
		rdeps.OTPRepo, rdeps.TokenRepo = otps, tokens
		if local {
			vdeps.Identity = identity.NewLocal(postgres.NewAccountRepo(db))
		}
		return func() { db.Close() }, nil

	case config.BackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		tables := cfg.DynamoTables
		if !local {
			tables.Accounts = ""
		}
		dynamo.Bootstrap(ctx, client, tables)

		otps := dynamo.NewOTPRepo(client, tables.OTPs)
		tokens := dynamo.NewTokenRepo(client, tables.Tokens)
		vdeps.OTPRepo, vdeps.TokenRepo = otps, tokens
		rdeps.OTPRepo, rdeps.TokenRepo = otps, tokens
		if local {
			vdeps.Identity = identity.NewLocal(dynamo.NewAccountRepo(client, tables.Accounts))
		}
		return func() {}, nil
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}

func gotrueProvider(cfg *config.Config) *identity.GoTrue {
	if cfg.GoTrueServiceKey == "" {
		logger.Log.Warn("GOTRUE_SERVICE_KEY is empty, admin calls will be rejected")
	}
	return identity.NewGoTrue(cfg.GoTrueURL, cfg.GoTrueServiceKey, cfg.HTTPClientTimeout)
}

// wireSenders picks the SMS and email dispatchers.
func wireSenders(ctx context.Context, cfg *config.Config, vdeps *verification.ServiceDeps) error {
	switch cfg.SMSProvider {
	case config.ProviderRelay:
		vdeps.SMSSender = relay.NewSMSSender(cfg.SMSRelayURL, cfg.SMSRelayAPIKey, cfg.SMSRelayRoute, cfg.CountryCode, cfg.HTTPClientTimeout)
	case config.ProviderSNS:
		awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			return err
		}
		vdeps.SMSSender = sns.NewSender(awsCfg, cfg.OTPTTL)
	case config.ProviderTwilio:
		vdeps.SMSSender = twilio.NewSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, cfg.OTPTTL)
	default:
		return fmt.Errorf("unknown SMS provider %q", cfg.SMSProvider)
	}

	switch cfg.EmailProvider {
	case config.ProviderRelay:
		vdeps.EmailSender = relay.NewEmailSender(cfg.EmailRelayURL, cfg.EmailRelayAPIKey, cfg.EmailFrom, cfg.HTTPClientTimeout)
	case config.ProviderSMTP:
		vdeps.EmailSender = smtp.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	case config.ProviderSendGrid:
		vdeps.EmailSender = sendgrid.NewMailer(cfg.SendGridAPIKey, cfg.EmailFrom)
	default:
		return fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
	return nil
}
