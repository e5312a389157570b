package paiements

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agricapital.ci/app/internal/modules/commissions"
	"agricapital.ci/app/internal/modules/plantations"
	"agricapital.ci/app/internal/modules/planteurs"
	"agricapital.ci/app/internal/modules/referentiel"
	"agricapital.ci/app/internal/modules/users"
)

const testUnitPrice = 75000 // FCFA par hectare

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&referentiel.Role{},
		&users.Utilisateur{},
		&planteurs.Planteur{},
		&plantations.Plantation{},
		&Paiement{},
		&GatewayEvent{},
		&commissions.Commission{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	Planteur   planteurs.Planteur
	Plantation plantations.Plantation
	Paiement   Paiement
}

// seedPending plante un conseiller (taux 5%), un planteur, une plantation
// et un paiement pending pret a recevoir un webhook.
func seedPending(t *testing.T, db *gorm.DB, kind string, montant int64, superficie float64) fixture {
	t.Helper()
	now := time.Now()

	role := referentiel.Role{
		ID:             uuid.NewString(),
		Code:           "conseiller",
		Nom:            "Conseiller terrain",
		TauxCommission: 0.05,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}

	conseiller := users.Utilisateur{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@agricapital.ci",
		Nom:          "Kouassi",
		PasswordHash: []byte("x"),
		Role:         "conseiller",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&conseiller).Error; err != nil {
		t.Fatalf("seed conseiller: %v", err)
	}

	pl := planteurs.Planteur{
		ID:           uuid.NewString(),
		Code:         "PL-2501-ABCDEF",
		Nom:          "Yao",
		Prenoms:      "Adjoua",
		Telephone:    "+225" + uuid.NewString()[:8],
		Village:      "Soubre",
		RegionID:     uuid.NewString(),
		ConseillerID: &conseiller.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&pl).Error; err != nil {
		t.Fatalf("seed planteur: %v", err)
	}

	plt := plantations.Plantation{
		ID:               uuid.NewString(),
		Code:             "PLT-soubre-2501-AAAA",
		PlanteurID:       pl.ID,
		RegionID:         pl.RegionID,
		Village:          "Soubre",
		Culture:          "hevea",
		SuperficieTotale: superficie,
		Statut:           plantations.StatutInactive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(&plt).Error; err != nil {
		t.Fatalf("seed plantation: %v", err)
	}

	p := Paiement{
		ID:           uuid.NewString(),
		PlanteurID:   pl.ID,
		PlantationID: plt.ID,
		Kind:         kind,
		Montant:      montant,
		Statut:       StatusPending,
		Reference:    NewReference(now),
		Gateway:      "cinetpay",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed paiement: %v", err)
	}

	return fixture{Planteur: pl, Plantation: plt, Paiement: p}
}

func newWebhookSvc(db *gorm.DB) *WebhookService {
	return NewWebhookService(db, testUnitPrice, commissions.NewService(db, nil))
}

func reloadPaiement(t *testing.T, db *gorm.DB, id string) Paiement {
	t.Helper()
	var p Paiement
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload paiement: %v", err)
	}
	return p
}

func reloadPlantation(t *testing.T, db *gorm.DB, id string) plantations.Plantation {
	t.Helper()
	var p plantations.Plantation
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload plantation: %v", err)
	}
	return p
}

func loadEvents(t *testing.T, db *gorm.DB) []GatewayEvent {
	t.Helper()
	var out []GatewayEvent
	if err := db.Order("received_at ASC").Find(&out).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	return out
}

type fakeGateway struct {
	name     string
	CreateFn func(ctx context.Context, req CreateTxRequest) (CreateTxResponse, error)
	LookupFn func(ctx context.Context, transactionID string) (LookupResult, error)
	VerifyFn func(headers http.Header, body []byte) (WebhookEvent, error)
}

func (g *fakeGateway) Name() string {
	if g.name == "" {
		return "fake"
	}
	return g.name
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, req CreateTxRequest) (CreateTxResponse, error) {
	if g.CreateFn != nil {
		return g.CreateFn(ctx, req)
	}
	return CreateTxResponse{TransactionID: "tx_fake", RedirectURL: "https://pay.example/fake"}, nil
}

func (g *fakeGateway) LookupTransaction(ctx context.Context, transactionID string) (LookupResult, error) {
	if g.LookupFn != nil {
		return g.LookupFn(ctx, transactionID)
	}
	return LookupResult{State: TxPending}, nil
}

func (g *fakeGateway) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	if g.VerifyFn != nil {
		return g.VerifyFn(headers, body)
	}
	return WebhookEvent{}, fmt.Errorf("fake: no verify configured")
}
