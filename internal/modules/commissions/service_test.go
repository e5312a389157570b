package commissions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agricapital.ci/app/internal/modules/planteurs"
	"agricapital.ci/app/internal/modules/referentiel"
	"agricapital.ci/app/internal/modules/users"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(&referentiel.Role{}, &users.Utilisateur{}, &planteurs.Planteur{}, &Commission{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedPlanteur(t *testing.T, db *gorm.DB, formule string, taux float64, withConseiller bool) planteurs.Planteur {
	t.Helper()
	now := time.Now()

	role := referentiel.Role{
		ID:                uuid.NewString(),
		Code:              "conseiller",
		Nom:               "Conseiller terrain",
		TauxCommission:    taux,
		FormuleCommission: formule,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}

	p := planteurs.Planteur{
		ID:        uuid.NewString(),
		Code:      "PL-2501-XXXXXX",
		Nom:       "Yao",
		Prenoms:   "Adjoua",
		Telephone: "+225" + uuid.NewString()[:8],
		Village:   "Soubre",
		RegionID:  uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if withConseiller {
		equipeID := uuid.NewString()
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
		p.ConseillerID = &conseiller.ID
		p.EquipeID = &equipeID
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed planteur: %v", err)
	}
	return p
}

func TestAccrueCreditsConseiller(t *testing.T) {
	db := testDB(t)
	p := seedPlanteur(t, db, "", 0.05, true)
	svc := NewService(db, nil)

	paiementID := uuid.NewString()
	if err := svc.Accrue(context.Background(), db, paiementID, p.ID, 150000); err != nil {
		t.Fatalf("Accrue: %v", err)
	}

	var c Commission
	if err := db.First(&c, "paiement_id = ?", paiementID).Error; err != nil {
		t.Fatalf("commission missing: %v", err)
	}
	if c.Montant != 7500 {
		t.Errorf("montant = %d, want 7500", c.Montant)
	}
	if c.Taux != 0.05 {
		t.Errorf("taux = %v", c.Taux)
	}
	if c.ConseillerID != *p.ConseillerID {
		t.Errorf("conseiller_id = %q", c.ConseillerID)
	}
	if c.EquipeID == nil || *c.EquipeID != *p.EquipeID {
		t.Errorf("equipe_id = %v", c.EquipeID)
	}
}

func TestAccrueIsIdempotentPerPayment(t *testing.T) {
	db := testDB(t)
	p := seedPlanteur(t, db, "", 0.05, true)
	svc := NewService(db, nil)

	paiementID := uuid.NewString()
	for i := 0; i < 3; i++ {
		if err := svc.Accrue(context.Background(), db, paiementID, p.ID, 150000); err != nil {
			t.Fatalf("Accrue #%d: %v", i+1, err)
		}
	}

	var count int64
	db.Model(&Commission{}).Where("paiement_id = ?", paiementID).Count(&count)
	if count != 1 {
		t.Fatalf("commissions = %d, want 1", count)
	}
}

func TestAccrueWithoutConseillerIsNoOp(t *testing.T) {
	db := testDB(t)
	p := seedPlanteur(t, db, "", 0.05, false)
	svc := NewService(db, nil)

	if err := svc.Accrue(context.Background(), db, uuid.NewString(), p.ID, 150000); err != nil {
		t.Fatalf("Accrue: %v", err)
	}

	var count int64
	db.Model(&Commission{}).Count(&count)
	if count != 0 {
		t.Errorf("commissions = %d, want 0", count)
	}
}

func TestAccrueUsesRoleFormula(t *testing.T) {
	db := testDB(t)
	// Prime fixe plus pourcentage.
	p := seedPlanteur(t, db, "500 + montant * taux", 0.02, true)
	svc := NewService(db, nil)

	paiementID := uuid.NewString()
	if err := svc.Accrue(context.Background(), db, paiementID, p.ID, 100000); err != nil {
		t.Fatalf("Accrue: %v", err)
	}

	var c Commission
	if err := db.First(&c, "paiement_id = ?", paiementID).Error; err != nil {
		t.Fatalf("commission missing: %v", err)
	}
	if c.Montant != 2500 {
		t.Errorf("montant = %d, want 2500", c.Montant)
	}
}

func TestCompute(t *testing.T) {
	cases := []struct {
		formule string
		montant int64
		taux    float64
		want    int64
		wantErr bool
	}{
		{"montant * taux", 150000, 0.05, 7500, false},
		{"montant * taux", 99999, 0.033, 3300, false},
		{"500 + montant * taux", 100000, 0.02, 2500, false},
		{"montant * 0", 100000, 0.1, 0, false},
		{"montant *", 100000, 0.1, 0, true},
	}
	for _, tc := range cases {
		got, err := Compute(tc.formule, tc.montant, tc.taux)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Compute(%q) err = nil, want error", tc.formule)
			}
			continue
		}
		if err != nil {
			t.Errorf("Compute(%q): %v", tc.formule, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Compute(%q, %d, %v) = %d, want %d", tc.formule, tc.montant, tc.taux, got, tc.want)
		}
	}
}

func TestTotalsByEquipe(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)

	equipeA := uuid.NewString()
	now := time.Now()
	for _, montant := range []int64{1000, 2000} {
		c := Commission{
			ID:           uuid.NewString(),
			PaiementID:   uuid.NewString(),
			ConseillerID: uuid.NewString(),
			EquipeID:     &equipeA,
			Montant:      montant,
			Taux:         0.05,
			CreatedAt:    now,
		}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed commission: %v", err)
		}
	}

	totals, err := svc.TotalsByEquipe(context.Background())
	if err != nil {
		t.Fatalf("TotalsByEquipe: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("groups = %d, want 1", len(totals))
	}
	if totals[0].Total != 3000 || totals[0].Nombre != 2 {
		t.Errorf("got %+v", totals[0])
	}
}
