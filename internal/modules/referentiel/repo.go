package referentiel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRefIntrouvable = errors.New("reference introuvable")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ListRegions(ctx context.Context) ([]Region, error) {
	var out []Region
	err := r.db.WithContext(ctx).Order("nom ASC").Find(&out).Error
	return out, err
}

func (r *Repo) CreateRegion(ctx context.Context, code, nom string) (Region, error) {
	now := time.Now()
	reg := Region{ID: uuid.NewString(), Code: code, Nom: nom, CreatedAt: now, UpdatedAt: now}
	return reg, r.db.WithContext(ctx).Create(&reg).Error
}

func (r *Repo) ListEquipes(ctx context.Context, regionID string) ([]Equipe, error) {
	q := r.db.WithContext(ctx).Order("nom ASC")
	if regionID != "" {
		q = q.Where("region_id = ?", regionID)
	}
	var out []Equipe
	err := q.Find(&out).Error
	return out, err
}

func (r *Repo) CreateEquipe(ctx context.Context, nom, regionID string, responsableID *string) (Equipe, error) {
	now := time.Now()
	e := Equipe{ID: uuid.NewString(), Nom: nom, RegionID: regionID, ResponsableID: responsableID, CreatedAt: now, UpdatedAt: now}
	return e, r.db.WithContext(ctx).Create(&e).Error
}

func (r *Repo) ListRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	err := r.db.WithContext(ctx).Order("code ASC").Find(&out).Error
	return out, err
}

func (r *Repo) GetRoleByCode(ctx context.Context, code string) (Role, error) {
	var role Role
	err := r.db.WithContext(ctx).First(&role, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Role{}, ErrRefIntrouvable
	}
	return role, err
}

func (r *Repo) SaveRole(ctx context.Context, role *Role) error {
	now := time.Now()
	if role.ID == "" {
		role.ID = uuid.NewString()
		role.CreatedAt = now
	}
	role.UpdatedAt = now
	return r.db.WithContext(ctx).Save(role).Error
}
