package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agricapital.ci/app/internal/http/middleware"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Utilisateur{}, &middleware.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateNormalizesEmailAndHashes(t *testing.T) {
	svc := NewService(testDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{
		Email:    "  Admin@AgriCapital.CI ",
		Nom:      "Diabate",
		Password: "secret123",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "admin@agricapital.ci" {
		t.Errorf("email = %q, want admin@agricapital.ci", u.Email)
	}
	if string(u.PasswordHash) == "secret123" || len(u.PasswordHash) == 0 {
		t.Errorf("mot de passe stocke en clair ou vide")
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(testDB(t))
	ctx := context.Background()

	in := CreateInput{Email: "ops@agricapital.ci", Nom: "Diabate", Password: "secret123", Role: "operateur"}
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, in); !errors.Is(err, ErrEmailDejaPris) {
		t.Fatalf("err = %v, want ErrEmailDejaPris", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(testDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{Email: "ops@agricapital.ci", Nom: "Diabate", Password: "secret123", Role: "operateur"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Authenticate(ctx, "OPS@agricapital.ci", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("user = %s, want %s", got.ID, u.ID)
	}

	if _, err := svc.Authenticate(ctx, "ops@agricapital.ci", "mauvais"); !errors.Is(err, ErrIdentifiants) {
		t.Errorf("err = %v, want ErrIdentifiants", err)
	}
	if _, err := svc.Authenticate(ctx, "inconnu@agricapital.ci", "secret123"); !errors.Is(err, ErrIdentifiants) {
		t.Errorf("email inconnu: err = %v, want ErrIdentifiants", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{Email: "ops@agricapital.ci", Nom: "Diabate", Password: "secret123", Role: "operateur"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sess, err := svc.CreateSession(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.UserID != u.ID {
		t.Errorf("session user = %s, want %s", sess.UserID, u.ID)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Errorf("session deja expiree: %v", sess.ExpiresAt)
	}

	if err := svc.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	var n int64
	if err := db.Model(&middleware.Session{}).Where("id = ?", sess.ID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("session toujours presente apres suppression")
	}
}
