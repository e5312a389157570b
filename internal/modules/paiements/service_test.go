package paiements

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agricapital.ci/app/internal/modules/plantations"
)

func TestInitiateCreatesPendingAndCallsGateway(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)

	var gotReq CreateTxRequest
	gw := &fakeGateway{
		CreateFn: func(_ context.Context, req CreateTxRequest) (CreateTxResponse, error) {
			gotReq = req
			return CreateTxResponse{TransactionID: "tok_9", RedirectURL: "https://pay.example/9"}, nil
		},
	}
	svc := NewService(db, NewRegistry(gw), "https://portail.agricapital.ci")

	res, err := svc.Initiate(context.Background(), InitiateInput{
		PlanteurID:        f.Planteur.ID,
		PlantationID:      f.Plantation.ID,
		Kind:              KindContribution,
		Montant:           20000,
		Gateway:           "fake",
		CustomerNom:       "Yao Adjoua",
		CustomerTelephone: "+2250102030405",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if res.RedirectURL != "https://pay.example/9" {
		t.Errorf("redirect_url = %q", res.RedirectURL)
	}
	if res.Paiement.Statut != StatusPending {
		t.Errorf("statut = %q, want pending", res.Paiement.Statut)
	}
	if res.Paiement.TransactionID == nil || *res.Paiement.TransactionID != "tok_9" {
		t.Errorf("transaction_id = %v, want tok_9", res.Paiement.TransactionID)
	}
	if !strings.HasPrefix(res.Paiement.Reference, "ACP-") {
		t.Errorf("reference = %q, want ACP- prefix", res.Paiement.Reference)
	}

	if gotReq.Reference != res.Paiement.Reference {
		t.Errorf("gateway got reference %q, want %q", gotReq.Reference, res.Paiement.Reference)
	}
	if !strings.Contains(gotReq.CallbackURL, "/webhooks/fake") {
		t.Errorf("callback_url = %q", gotReq.CallbackURL)
	}

	p := reloadPaiement(t, db, res.Paiement.ID)
	if p.Statut != StatusPending || p.TransactionID == nil {
		t.Errorf("stored payment: statut=%q transaction_id=%v", p.Statut, p.TransactionID)
	}
}

func TestInitiateGatewayErrorLeavesPending(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)

	boom := errors.New("passerelle indisponible")
	gw := &fakeGateway{
		CreateFn: func(context.Context, CreateTxRequest) (CreateTxResponse, error) {
			return CreateTxResponse{}, boom
		},
	}
	svc := NewService(db, NewRegistry(gw), "https://portail.agricapital.ci")

	_, err := svc.Initiate(context.Background(), InitiateInput{
		PlanteurID:   f.Planteur.ID,
		PlantationID: f.Plantation.ID,
		Kind:         KindContribution,
		Montant:      20000,
		Gateway:      "fake",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want gateway error surfaced", err)
	}

	// Le paiement local existe, pending, sans transaction_id: une nouvelle
	// tentative repartira avec une reference fraiche.
	var count int64
	db.Model(&Paiement{}).Where("statut = ? AND transaction_id IS NULL AND kind = ?", StatusPending, KindContribution).Count(&count)
	if count != 1 {
		t.Errorf("pending orphan payments = %d, want 1", count)
	}
}

func TestInitiateRejectsForeignPlantation(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)
	svc := NewService(db, NewRegistry(&fakeGateway{}), "https://portail.agricapital.ci")

	_, err := svc.Initiate(context.Background(), InitiateInput{
		PlanteurID:   "autre-planteur",
		PlantationID: f.Plantation.ID,
		Kind:         KindContribution,
		Montant:      20000,
		Gateway:      "fake",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestInitiateRejectsFullyActivatedForAccessRight(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)

	if err := db.Model(&plantations.Plantation{}).Where("id = ?", f.Plantation.ID).
		Updates(map[string]any{"superficie_activee": 4.0, "statut": plantations.StatutComplete}).Error; err != nil {
		t.Fatalf("setup: %v", err)
	}

	svc := NewService(db, NewRegistry(&fakeGateway{}), "https://portail.agricapital.ci")
	_, err := svc.Initiate(context.Background(), InitiateInput{
		PlanteurID:   f.Planteur.ID,
		PlantationID: f.Plantation.ID,
		Kind:         KindAccessRight,
		Montant:      testUnitPrice,
		Gateway:      "fake",
	})
	if !errors.Is(err, ErrPlantationInactive) {
		t.Fatalf("err = %v, want ErrPlantationInactive", err)
	}

	// Les cotisations restent possibles sur une plantation active.
	if _, err := svc.Initiate(context.Background(), InitiateInput{
		PlanteurID:   f.Planteur.ID,
		PlantationID: f.Plantation.ID,
		Kind:         KindContribution,
		Montant:      20000,
		Gateway:      "fake",
	}); err != nil {
		t.Errorf("contribution on active plantation: %v", err)
	}
}

func TestInitiateValidation(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)
	svc := NewService(db, NewRegistry(&fakeGateway{}), "https://portail.agricapital.ci")

	if _, err := svc.Initiate(context.Background(), InitiateInput{
		PlanteurID: f.Planteur.ID, PlantationID: f.Plantation.ID,
		Kind: KindContribution, Montant: 0, Gateway: "fake",
	}); !errors.Is(err, ErrMontantInvalide) {
		t.Errorf("montant 0: err = %v, want ErrMontantInvalide", err)
	}

	if _, err := svc.Initiate(context.Background(), InitiateInput{
		PlanteurID: f.Planteur.ID, PlantationID: f.Plantation.ID,
		Kind: KindContribution, Montant: 1000, Gateway: "orange-money",
	}); !errors.Is(err, ErrGatewayInconnue) {
		t.Errorf("unknown gateway: err = %v, want ErrGatewayInconnue", err)
	}
}

func TestCreateObligation(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)
	svc := NewService(db, NewRegistry(&fakeGateway{}), "https://portail.agricapital.ci")

	p, err := svc.CreateObligation(context.Background(), nil, f.Planteur.ID, f.Plantation.ID, KindAccessRight, 4*testUnitPrice)
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}
	if p.Statut != StatusPending || p.Gateway != "" {
		t.Errorf("obligation: statut=%q gateway=%q, want pending sans passerelle", p.Statut, p.Gateway)
	}
	if p.Montant != 4*testUnitPrice {
		t.Errorf("montant = %d", p.Montant)
	}
}
