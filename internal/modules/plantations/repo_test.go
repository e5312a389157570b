package plantations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Plantation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func create(t *testing.T, db *gorm.DB, superficie float64) Plantation {
	t.Helper()
	repo := NewRepo(db)
	p, err := repo.Create(context.Background(), CreateInput{
		PlanteurID:       uuid.NewString(),
		RegionID:         uuid.NewString(),
		Village:          "Soubre",
		Culture:          "hevea",
		SuperficieTotale: superficie,
	})
	if err != nil {
		t.Fatalf("create plantation: %v", err)
	}
	return p
}

func TestCreateGeneratesCodeAndStartsInactive(t *testing.T) {
	db := testDB(t)
	p := create(t, db, 5)

	if !strings.HasPrefix(p.Code, "PLT-soubre-") {
		t.Errorf("code = %q, want PLT-soubre- prefix", p.Code)
	}
	if p.Statut != StatutInactive || p.SuperficieActivee != 0 || p.ActivatedAt != nil {
		t.Errorf("new plantation: statut=%q activee=%v activated_at=%v", p.Statut, p.SuperficieActivee, p.ActivatedAt)
	}

	repo := NewRepo(db)
	if _, err := repo.Create(context.Background(), CreateInput{Village: "x", SuperficieTotale: 0}); !errors.Is(err, ErrSuperficieInvalide) {
		t.Errorf("superficie 0: err = %v", err)
	}
}

func TestApplyActivationAccumulatesAndClamps(t *testing.T) {
	db := testDB(t)
	p := create(t, db, 5)

	got, err := ApplyActivation(db, p.ID, 2)
	if err != nil {
		t.Fatalf("ApplyActivation: %v", err)
	}
	if got.SuperficieActivee != 2 || got.Statut != StatutPartielle {
		t.Fatalf("after 2ha: activee=%v statut=%q", got.SuperficieActivee, got.Statut)
	}
	if got.ActivatedAt == nil {
		t.Fatal("activated_at not set on first activation")
	}
	first := *got.ActivatedAt

	time.Sleep(5 * time.Millisecond)
	got, err = ApplyActivation(db, p.ID, 10)
	if err != nil {
		t.Fatalf("ApplyActivation: %v", err)
	}
	if got.SuperficieActivee != 5 {
		t.Errorf("activee = %v, want clamped 5", got.SuperficieActivee)
	}
	if got.Statut != StatutComplete {
		t.Errorf("statut = %q, want %q", got.Statut, StatutComplete)
	}

	var stored Plantation
	if err := db.First(&stored, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.ActivatedAt == nil || !stored.ActivatedAt.Equal(first) {
		t.Errorf("activated_at moved: %v -> %v", first, stored.ActivatedAt)
	}
}

func TestApplyActivationZeroHectaresIsNoOp(t *testing.T) {
	db := testDB(t)
	p := create(t, db, 5)

	got, err := ApplyActivation(db, p.ID, 0)
	if err != nil {
		t.Fatalf("ApplyActivation: %v", err)
	}
	if got.SuperficieActivee != 0 || got.ActivatedAt != nil {
		t.Errorf("zero hectares changed state: %+v", got)
	}
}

func TestApplyActivationUnknownID(t *testing.T) {
	db := testDB(t)
	if _, err := ApplyActivation(db, uuid.NewString(), 1); !errors.Is(err, ErrIntrouvable) {
		t.Fatalf("err = %v, want ErrIntrouvable", err)
	}
}

func TestListFilters(t *testing.T) {
	db := testDB(t)
	p := create(t, db, 5)
	create(t, db, 3)

	if _, err := ApplyActivation(db, p.ID, 5); err != nil {
		t.Fatalf("ApplyActivation: %v", err)
	}

	repo := NewRepo(db)
	res, err := repo.List(context.Background(), ListParams{Statut: StatutComplete})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 || res.Items[0].ID != p.ID {
		t.Errorf("filter statut: total=%d items=%d", res.Total, len(res.Items))
	}
}
