package plantations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/shared/slug"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying database connection for direct queries.
func (r *Repo) DB() *gorm.DB { return r.db }

type CreateInput struct {
	PlanteurID       string
	RegionID         string
	Village          string
	Culture          string
	SuperficieTotale float64
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (Plantation, error) {
	if in.SuperficieTotale <= 0 {
		return Plantation{}, ErrSuperficieInvalide
	}

	now := time.Now()
	p := Plantation{
		ID:               uuid.NewString(),
		Code:             NewCode(in.Village, now),
		PlanteurID:       in.PlanteurID,
		RegionID:         in.RegionID,
		Village:          strings.TrimSpace(in.Village),
		Culture:          strings.TrimSpace(in.Culture),
		SuperficieTotale: in.SuperficieTotale,
		Statut:           StatutInactive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return Plantation{}, err
	}
	return p, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (Plantation, error) {
	var p Plantation
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Plantation{}, ErrIntrouvable
	}
	return p, err
}

func (r *Repo) ListByPlanteur(ctx context.Context, planteurID string) ([]Plantation, error) {
	var out []Plantation
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out, "planteur_id = ?", planteurID).Error
	return out, err
}

type ListParams struct {
	Page     int
	PageSize int
	RegionID string
	Statut   string
}

type ListResult struct {
	Items []Plantation
	Total int64
}

func (r *Repo) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&Plantation{})
	if in.RegionID != "" {
		q = q.Where("region_id = ?", in.RegionID)
	}
	if in.Statut != "" {
		q = q.Where("statut = ?", in.Statut)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Plantation
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}

// ApplyActivation adds hectares to the activated area, clamped to the total.
// It must run inside the same transaction as the payment transition that
// triggered it; the payment guard guarantees at most one call per payment.
// The arithmetic runs in SQL against the current row: two distinct payments
// settling on the same plantation accumulate instead of overwriting each
// other, whatever order their transactions commit in.
func ApplyActivation(tx *gorm.DB, id string, hectares float64) (Plantation, error) {
	if hectares <= 0 {
		var p Plantation
		err := tx.First(&p, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Plantation{}, ErrIntrouvable
		}
		return p, err
	}

	now := time.Now()
	res := tx.Model(&Plantation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"superficie_activee": gorm.Expr(
				"CASE WHEN superficie_activee + ? >= superficie_totale THEN superficie_totale ELSE superficie_activee + ? END",
				hectares, hectares),
			"statut": gorm.Expr(
				"CASE WHEN superficie_activee + ? >= superficie_totale THEN ? ELSE ? END",
				hectares, StatutComplete, StatutPartielle),
			// Premiere activation: on fige la date, elle ne bouge plus ensuite.
			"activated_at": gorm.Expr("COALESCE(activated_at, ?)", now),
			"updated_at":   now,
		})
	if res.Error != nil {
		return Plantation{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Plantation{}, ErrIntrouvable
	}

	var p Plantation
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		return Plantation{}, err
	}
	return p, nil
}

func NewCode(village string, now time.Time) string {
	return fmt.Sprintf("PLT-%s-%s-%s",
		slug.FromName(village), now.Format("0601"), strings.ToUpper(uuid.NewString()[:4]))
}
