package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/http/middleware"
)

var (
	ErrIntrouvable   = errors.New("utilisateur introuvable")
	ErrIdentifiants  = errors.New("email ou mot de passe incorrect")
	ErrEmailDejaPris = errors.New("email deja utilise")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type CreateInput struct {
	Email    string
	Nom      string
	Password string
	Role     string
	EquipeID *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Utilisateur, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&Utilisateur{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return Utilisateur{}, err
	}
	if count > 0 {
		return Utilisateur{}, ErrEmailDejaPris
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Utilisateur{}, err
	}

	now := time.Now()
	u := Utilisateur{
		ID:           uuid.NewString(),
		Email:        email,
		Nom:          strings.TrimSpace(in.Nom),
		PasswordHash: hash,
		Role:         in.Role,
		EquipeID:     in.EquipeID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return u, s.db.WithContext(ctx).Create(&u).Error
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Utilisateur, error) {
	var u Utilisateur
	err := s.db.WithContext(ctx).
		First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Utilisateur{}, ErrIdentifiants
	}
	if err != nil {
		return Utilisateur{}, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return Utilisateur{}, ErrIdentifiants
	}
	return u, nil
}

// CreateSession opens a back-office session and returns its id (cookie value).
func (s *Service) CreateSession(ctx context.Context, userID string, ttl time.Duration) (middleware.Session, error) {
	now := time.Now()
	sess := middleware.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	return sess, s.db.WithContext(ctx).Create(&sess).Error
}

func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Delete(&middleware.Session{}, "id = ?", sessionID).Error
}

func (s *Service) GetByID(ctx context.Context, id string) (Utilisateur, error) {
	var u Utilisateur
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Utilisateur{}, ErrIntrouvable
	}
	return u, err
}

func (s *Service) List(ctx context.Context) ([]Utilisateur, error) {
	var out []Utilisateur
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}
