package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/modules/commissions"
	"agricapital.ci/app/internal/modules/paiements"
	"agricapital.ci/app/internal/modules/plantations"
	"agricapital.ci/app/internal/modules/planteurs"
	"agricapital.ci/app/internal/modules/referentiel"
	"agricapital.ci/app/internal/modules/souscriptions"
	"agricapital.ci/app/internal/modules/users"
)

func main() {
	_ = godotenv.Load()

	seedAdmin := flag.Bool("seed-admin", false, "Create the initial admin account")
	adminEmail := flag.String("admin-email", "admin@agricapital.ci", "Admin email")
	adminPassword := flag.String("admin-password", "", "Admin password (required with -seed-admin)")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&referentiel.Region{},
		&referentiel.Equipe{},
		&referentiel.Role{},
		&users.Utilisateur{},
		&middleware.Session{},
		&planteurs.Planteur{},
		&plantations.Plantation{},
		&souscriptions.Souscription{},
		&souscriptions.Document{},
		&paiements.Paiement{},
		&paiements.GatewayEvent{},
		&commissions.Commission{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("migration done")

	if *seedAdmin {
		if *adminPassword == "" {
			log.Fatal("-admin-password is required with -seed-admin")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := users.NewService(db)
		u, err := svc.Create(ctx, users.CreateInput{
			Email:    *adminEmail,
			Nom:      "Administrateur",
			Password: *adminPassword,
			Role:     "admin",
		})
		if err != nil {
			log.Fatalf("seed admin failed: %v", err)
		}
		log.Printf("admin created: %s (%s)", u.Email, u.ID)
	}
}
