package planteurs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// DB returns the underlying database connection for direct queries.
func (s *Service) DB() *gorm.DB { return s.db }

type CreateInput struct {
	Nom          string
	Prenoms      string
	Telephone    string
	Email        *string
	Village      string
	RegionID     string
	EquipeID     *string
	ConseillerID *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Planteur, error) {
	now := time.Now()
	p := Planteur{
		ID:           uuid.NewString(),
		Code:         newCode(now),
		Nom:          strings.TrimSpace(in.Nom),
		Prenoms:      strings.TrimSpace(in.Prenoms),
		Telephone:    strings.TrimSpace(in.Telephone),
		Email:        in.Email,
		Village:      strings.TrimSpace(in.Village),
		RegionID:     in.RegionID,
		EquipeID:     in.EquipeID,
		ConseillerID: in.ConseillerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Planteur{}).
		Where("telephone = ?", p.Telephone).Count(&count).Error; err != nil {
		return Planteur{}, err
	}
	if count > 0 {
		return Planteur{}, ErrTelephoneDejaPris
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return Planteur{}, err
	}
	return p, nil
}

type UpdateInput struct {
	Nom          *string
	Prenoms      *string
	Email        *string
	Village      *string
	EquipeID     *string
	ConseillerID *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Planteur, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Planteur{}, err
	}

	updates := map[string]any{"updated_at": time.Now()}
	if in.Nom != nil {
		updates["nom"] = strings.TrimSpace(*in.Nom)
	}
	if in.Prenoms != nil {
		updates["prenoms"] = strings.TrimSpace(*in.Prenoms)
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Village != nil {
		updates["village"] = strings.TrimSpace(*in.Village)
	}
	if in.EquipeID != nil {
		updates["equipe_id"] = *in.EquipeID
	}
	if in.ConseillerID != nil {
		updates["conseiller_id"] = *in.ConseillerID
	}

	if err := s.db.WithContext(ctx).Model(&Planteur{}).
		Where("id = ?", p.ID).Updates(updates).Error; err != nil {
		return Planteur{}, err
	}
	return s.GetByID(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (Planteur, error) {
	var p Planteur
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Planteur{}, ErrIntrouvable
	}
	return p, err
}

type ListParams struct {
	Page     int
	PageSize int
	RegionID string
	EquipeID string
	Search   string // nom, prenoms ou telephone
}

type ListResult struct {
	Items []Planteur
	Total int64
}

func (s *Service) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := s.db.WithContext(ctx).Model(&Planteur{})
	if in.RegionID != "" {
		q = q.Where("region_id = ?", in.RegionID)
	}
	if in.EquipeID != "" {
		q = q.Where("equipe_id = ?", in.EquipeID)
	}
	if str := strings.TrimSpace(in.Search); str != "" {
		like := "%" + str + "%"
		q = q.Where("nom LIKE ? OR prenoms LIKE ? OR telephone LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Planteur
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}

// ActivatePortalAccount sets the portal password. Called by the back office
// when the planteur's souscription is approved.
func (s *Service) ActivatePortalAccount(ctx context.Context, id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&Planteur{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrIntrouvable
	}
	return nil
}

// Authenticate verifies portal credentials by phone number.
func (s *Service) Authenticate(ctx context.Context, telephone, password string) (Planteur, error) {
	var p Planteur
	err := s.db.WithContext(ctx).First(&p, "telephone = ?", strings.TrimSpace(telephone)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Planteur{}, ErrIdentifiants
	}
	if err != nil {
		return Planteur{}, err
	}
	if len(p.PasswordHash) == 0 {
		return Planteur{}, ErrCompteNonActive
	}
	if bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(password)) != nil {
		return Planteur{}, ErrIdentifiants
	}
	return p, nil
}

func newCode(now time.Time) string {
	return fmt.Sprintf("PL-%s-%s", now.Format("0601"), strings.ToUpper(uuid.NewString()[:6]))
}
