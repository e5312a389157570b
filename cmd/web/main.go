package main

import (
	"context"
	"log"
	"os"
	"time"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/cache"
	"agricapital.ci/app/internal/config"
	"agricapital.ci/app/internal/events"
	apphttp "agricapital.ci/app/internal/http"
	"agricapital.ci/app/internal/modules/commissions"
	"agricapital.ci/app/internal/modules/paiements"
	"agricapital.ci/app/internal/modules/plantations"
	"agricapital.ci/app/internal/modules/planteurs"
	"agricapital.ci/app/internal/modules/referentiel"
	"agricapital.ci/app/internal/modules/souscriptions"
	"agricapital.ci/app/internal/modules/users"
	"agricapital.ci/app/internal/notify"
	"agricapital.ci/app/internal/storage"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	store, err := storage.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	logger.Info("storage ready", "driver", store.Driver)

	registry := paiements.NewRegistry(
		paiements.NewCinetPay(cfg.CinetPay.BaseURL, cfg.CinetPay.APIKey, cfg.CinetPay.SiteID, cfg.CinetPay.WebhookSecret),
		paiements.NewWave(cfg.Wave.BaseURL, cfg.Wave.APIKey, cfg.Wave.WebhookSecret),
	)

	redisCache := cache.New(cfg.RedisAddr)

	producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	defer producer.Close()

	notifier := notify.NewNotifier(notify.NewHTTPEmailProvider(), notify.NewHTTPSMSProvider(), logger)

	usersSvc := users.NewService(db)
	planteursSvc := planteurs.NewService(db)
	plantationsRepo := plantations.NewRepo(db)
	referentielRepo := referentiel.NewRepo(db)
	commissionsSvc := commissions.NewService(db, logger)

	paiementsSvc := paiements.NewService(db, registry, cfg.BaseURL)
	webhookSvc := paiements.NewWebhookService(db, cfg.AccessRightUnitPrice, commissionsSvc)
	webhookSvc.SetLogger(logger)
	verifySvc := paiements.NewVerifyService(db, registry, webhookSvc)
	verifySvc.SetLogger(logger)

	souscriptionsSvc := souscriptions.NewService(db, store.Storage, plantationsRepo, paiementsSvc, cfg.AccessRightUnitPrice)

	// Apres chaque transition vers valid: recu, evenement, cache.
	webhookSvc.OnValid = func(ctx context.Context, p paiements.Paiement) {
		if pl, err := planteursSvc.GetByID(ctx, p.PlanteurID); err == nil {
			email := ""
			if pl.Email != nil {
				email = *pl.Email
			}
			montant := p.Montant
			if p.MontantPaye != nil {
				montant = *p.MontantPaye
			}
			notifier.SendPaymentReceipt(notify.PaymentReceipt{
				PlanteurNom: pl.Nom + " " + pl.Prenoms,
				Telephone:   pl.Telephone,
				Email:       email,
				Reference:   p.Reference,
				Montant:     montant,
				Kind:        p.Kind,
			})
		}

		paidAt := time.Now()
		if p.PaidAt != nil {
			paidAt = *p.PaidAt
		}
		montant := p.Montant
		if p.MontantPaye != nil {
			montant = *p.MontantPaye
		}
		producer.PublishPaiementValide(events.PaiementValide{
			PaiementID:   p.ID,
			Reference:    p.Reference,
			PlanteurID:   p.PlanteurID,
			PlantationID: p.PlantationID,
			Kind:         p.Kind,
			Montant:      montant,
			PaidAt:       paidAt,
		})

		redisCache.Del(ctx, "dashboard:stats")
	}

	r := apphttp.NewRouter(apphttp.Deps{
		Logger: logger,
		DB:     db,
		Cache:  redisCache,

		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTTTL,

		SessionCookieName: cfg.SessionCookieName,
		SessionTTL:        cfg.SessionTTL,
		SecureCookie:      cfg.SessionSecure,

		Registry: registry,

		Users:         usersSvc,
		Planteurs:     planteursSvc,
		Plantations:   plantationsRepo,
		Souscriptions: souscriptionsSvc,
		Paiements:     paiementsSvc,
		Verify:        verifySvc,
		Webhooks:      webhookSvc,
		Commissions:   commissionsSvc,
		Referentiel:   referentielRepo,
	})

	logger.Info("server starting", "addr", cfg.HTTPAddr, "env", cfg.Env, "gateways", registry.Names())
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
