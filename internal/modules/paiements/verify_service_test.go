package paiements

import (
	"context"
	"testing"
)

func TestVerifyBeforeWebhookAppliesTransition(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)

	webhooks := newWebhookSvc(db)
	var notified int
	webhooks.OnValid = func(context.Context, Paiement) { notified++ }

	gw := &fakeGateway{
		LookupFn: func(_ context.Context, transactionID string) (LookupResult, error) {
			return LookupResult{State: TxApproved, Montant: testUnitPrice, Reference: f.Paiement.Reference}, nil
		},
	}
	svc := NewVerifyService(db, NewRegistry(gw), webhooks)

	res, err := svc.Verify(context.Background(), "fake", "tok_1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != VerifyApproved {
		t.Fatalf("status = %q, want %q", res.Status, VerifyApproved)
	}
	if res.PaiementID != f.Paiement.ID {
		t.Errorf("paiement_id = %q, want %q", res.PaiementID, f.Paiement.ID)
	}

	p := reloadPaiement(t, db, f.Paiement.ID)
	if p.Statut != StatusValid {
		t.Fatalf("statut = %q, want valid", p.Statut)
	}
	plt := reloadPlantation(t, db, f.Plantation.ID)
	if plt.SuperficieActivee != 1 {
		t.Errorf("superficie_activee = %v, want 1", plt.SuperficieActivee)
	}
	if notified != 1 {
		t.Errorf("OnValid calls = %d, want 1", notified)
	}

	// Le webhook arrive ensuite: no-op, pas de double activation.
	ev := approvedEvent(f, testUnitPrice)
	if err := webhooks.Handle(context.Background(), "cinetpay", ev, []byte(`{}`)); err != nil {
		t.Fatalf("Handle after verify: %v", err)
	}
	plt = reloadPlantation(t, db, f.Plantation.ID)
	if plt.SuperficieActivee != 1 {
		t.Errorf("superficie_activee = %v after webhook replay, want 1", plt.SuperficieActivee)
	}
	if notified != 1 {
		t.Errorf("OnValid calls = %d after replay, want 1", notified)
	}
}

func TestVerifyPendingAsksForRetry(t *testing.T) {
	db := testDB(t)
	seedPending(t, db, KindAccessRight, testUnitPrice, 4)

	gw := &fakeGateway{
		LookupFn: func(context.Context, string) (LookupResult, error) {
			return LookupResult{State: TxPending}, nil
		},
	}
	svc := NewVerifyService(db, NewRegistry(gw), newWebhookSvc(db))

	res, err := svc.Verify(context.Background(), "fake", "tok_1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != VerifyPending || res.RetryInSeconds == 0 {
		t.Errorf("got %+v, want pending with retry delay", res)
	}
}

func TestVerifyFallsBackToTransactionID(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)

	tid := "tok_42"
	if err := db.Model(&Paiement{}).Where("id = ?", f.Paiement.ID).
		Update("transaction_id", tid).Error; err != nil {
		t.Fatalf("set transaction_id: %v", err)
	}

	// La passerelle ne renvoie pas la reference marchande.
	gw := &fakeGateway{
		LookupFn: func(context.Context, string) (LookupResult, error) {
			return LookupResult{State: TxApproved, Montant: testUnitPrice}, nil
		},
	}
	svc := NewVerifyService(db, NewRegistry(gw), newWebhookSvc(db))

	res, err := svc.Verify(context.Background(), "fake", tid)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != VerifyApproved {
		t.Fatalf("status = %q, want approved", res.Status)
	}
	if res.Reference != f.Paiement.Reference {
		t.Errorf("reference = %q, want %q", res.Reference, f.Paiement.Reference)
	}
}

func TestVerifyUnknownTransactionStaysPending(t *testing.T) {
	db := testDB(t)

	gw := &fakeGateway{
		LookupFn: func(context.Context, string) (LookupResult, error) {
			return LookupResult{State: TxApproved, Montant: testUnitPrice}, nil
		},
	}
	svc := NewVerifyService(db, NewRegistry(gw), newWebhookSvc(db))

	res, err := svc.Verify(context.Background(), "fake", "tok_inconnu")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != VerifyPending {
		t.Errorf("status = %q, want pending for unknown transaction", res.Status)
	}
}

func TestVerifyAfterWebhookReportsCurrentState(t *testing.T) {
	db := testDB(t)
	f := seedPending(t, db, KindAccessRight, testUnitPrice, 4)
	webhooks := newWebhookSvc(db)

	if err := webhooks.Handle(context.Background(), "cinetpay", approvedEvent(f, testUnitPrice), []byte(`{}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	gw := &fakeGateway{
		LookupFn: func(context.Context, string) (LookupResult, error) {
			return LookupResult{State: TxApproved, Montant: testUnitPrice, Reference: f.Paiement.Reference}, nil
		},
	}
	svc := NewVerifyService(db, NewRegistry(gw), webhooks)

	res, err := svc.Verify(context.Background(), "fake", "tok_1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != VerifyApproved {
		t.Errorf("status = %q, want approved from current payment state", res.Status)
	}

	plt := reloadPlantation(t, db, f.Plantation.ID)
	if plt.SuperficieActivee != 1 {
		t.Errorf("superficie_activee = %v, want 1 (no double application)", plt.SuperficieActivee)
	}
}
