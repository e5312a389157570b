package commissions

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Formule par defaut si le role du conseiller n'en definit pas.
const defaultFormule = "montant * taux"

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// Accrue credits the conseiller of the planteur for a settled acces-right
// payment. Runs inside the reconciliation transaction; at most one
// commission per payment. A planteur without conseiller accrues nothing.
func (s *Service) Accrue(ctx context.Context, tx *gorm.DB, paiementID, planteurID string, montant int64) error {
	var cnt int64
	if err := tx.Table("commissions").
		Where("paiement_id = ?", paiementID).
		Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}

	var pl struct {
		ConseillerID *string
		EquipeID     *string
	}
	if err := tx.Table("planteurs").
		Select("conseiller_id, equipe_id").
		Where("id = ?", planteurID).
		Scan(&pl).Error; err != nil {
		return err
	}
	if pl.ConseillerID == nil {
		return nil
	}

	taux, formule, err := s.roleParams(tx, *pl.ConseillerID)
	if err != nil {
		return err
	}

	ca, err := Compute(formule, montant, taux)
	if err != nil {
		return fmt.Errorf("formule commission: %w", err)
	}
	if ca <= 0 {
		return nil
	}

	c := Commission{
		ID:           uuid.NewString(),
		PaiementID:   paiementID,
		ConseillerID: *pl.ConseillerID,
		EquipeID:     pl.EquipeID,
		Montant:      ca,
		Taux:         taux,
		CreatedAt:    time.Now(),
	}
	return tx.WithContext(ctx).Create(&c).Error
}

func (s *Service) roleParams(tx *gorm.DB, conseillerID string) (float64, string, error) {
	var u struct{ Role string }
	if err := tx.Table("utilisateurs").
		Select("role").
		Where("id = ?", conseillerID).
		Scan(&u).Error; err != nil {
		return 0, "", err
	}

	var role struct {
		TauxCommission    float64
		FormuleCommission string
	}
	if err := tx.Table("roles").
		Select("taux_commission, formule_commission").
		Where("code = ?", u.Role).
		Scan(&role).Error; err != nil {
		return 0, "", err
	}

	formule := role.FormuleCommission
	if formule == "" {
		formule = defaultFormule
	}
	return role.TauxCommission, formule, nil
}

// Compute evaluates a commission formula over montant and taux.
// Result is rounded to the nearest franc.
func Compute(formule string, montant int64, taux float64) (int64, error) {
	expr, err := govaluate.NewEvaluableExpression(formule)
	if err != nil {
		return 0, err
	}
	res, err := expr.Evaluate(map[string]any{
		"montant": float64(montant),
		"taux":    taux,
	})
	if err != nil {
		return 0, err
	}
	f, ok := res.(float64)
	if !ok {
		return 0, fmt.Errorf("resultat non numerique: %v", res)
	}
	return int64(math.Round(f)), nil
}

type TotalParEquipe struct {
	EquipeID *string `json:"equipe_id"`
	Total    int64   `json:"total"`
	Nombre   int64   `json:"nombre"`
}

func (s *Service) TotalsByEquipe(ctx context.Context) ([]TotalParEquipe, error) {
	var out []TotalParEquipe
	err := s.db.WithContext(ctx).Table("commissions").
		Select("equipe_id, SUM(montant) AS total, COUNT(*) AS nombre").
		Group("equipe_id").
		Scan(&out).Error
	return out, err
}

type ListParams struct {
	Page         int
	PageSize     int
	ConseillerID string
}

type ListResult struct {
	Items []Commission
	Total int64
}

func (s *Service) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 50
	}

	q := s.db.WithContext(ctx).Model(&Commission{})
	if in.ConseillerID != "" {
		q = q.Where("conseiller_id = ?", in.ConseillerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Commission
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}
