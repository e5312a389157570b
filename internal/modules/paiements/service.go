package paiements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/modules/plantations"
)

type Service struct {
	db       *gorm.DB
	registry *Registry
	baseURL  string
}

func NewService(db *gorm.DB, registry *Registry, baseURL string) *Service {
	return &Service{db: db, registry: registry, baseURL: baseURL}
}

type InitiateInput struct {
	PlanteurID   string
	PlantationID string
	Kind         string // access_right | contribution
	Montant      int64
	Gateway      string

	CustomerNom       string
	CustomerTelephone string
	CustomerEmail     string
}

type InitiateResult struct {
	Paiement    Paiement
	RedirectURL string
}

// Initiate creates the local pending Paiement, then asks the gateway for a
// hosted-checkout transaction. Gateway errors are surfaced unchanged and
// leave the payment pending: the subscriber retries with a fresh attempt
// (new reference), never by replaying this one.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	if in.Montant <= 0 {
		return InitiateResult{}, ErrMontantInvalide
	}
	if in.Kind != KindAccessRight && in.Kind != KindContribution {
		return InitiateResult{}, fmt.Errorf("kind inconnu: %s", in.Kind)
	}

	gw, err := s.registry.Get(in.Gateway)
	if err != nil {
		return InitiateResult{}, err
	}

	// Phase 1: controles + creation du paiement pending, en transaction.
	var p Paiement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plt plantations.Plantation
		if err := tx.First(&plt, "id = ?", in.PlantationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return plantations.ErrIntrouvable
			}
			return err
		}
		if plt.PlanteurID != in.PlanteurID {
			return ErrForbidden
		}
		if in.Kind == KindAccessRight && plt.SuperficieActivee >= plt.SuperficieTotale {
			return ErrPlantationInactive
		}

		now := time.Now()
		p = Paiement{
			ID:           uuid.NewString(),
			PlanteurID:   in.PlanteurID,
			PlantationID: in.PlantationID,
			Kind:         in.Kind,
			Montant:      in.Montant,
			Statut:       StatusPending,
			Reference:    NewReference(now),
			Gateway:      gw.Name(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return InitiateResult{}, err
	}

	// Phase 2: appel passerelle, hors transaction.
	resp, gerr := gw.CreateTransaction(ctx, CreateTxRequest{
		Reference:         p.Reference,
		Montant:           p.Montant,
		Description:       description(p.Kind),
		CustomerNom:       in.CustomerNom,
		CustomerTelephone: in.CustomerTelephone,
		CustomerEmail:     in.CustomerEmail,
		ReturnURL:         s.baseURL + "/paiement/retour?reference=" + p.Reference,
		CallbackURL:       s.baseURL + "/webhooks/" + gw.Name(),
	})
	if gerr != nil {
		// Pas de retry automatique: le paiement reste pending.
		return InitiateResult{}, gerr
	}

	// Phase 3: on pose l'identifiant de transaction passerelle.
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&Paiement{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"transaction_id": resp.TransactionID, "updated_at": now}).Error; err != nil {
		return InitiateResult{}, err
	}
	p.TransactionID = &resp.TransactionID
	p.UpdatedAt = now

	return InitiateResult{Paiement: p, RedirectURL: resp.RedirectURL}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Paiement, error) {
	var p Paiement
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Paiement{}, ErrIntrouvable
	}
	return p, err
}

func (s *Service) GetByReference(ctx context.Context, reference string) (Paiement, error) {
	var p Paiement
	err := s.db.WithContext(ctx).First(&p, "reference = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Paiement{}, ErrIntrouvable
	}
	return p, err
}

func (s *Service) ListByPlanteur(ctx context.Context, planteurID string) ([]Paiement, error) {
	var out []Paiement
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out, "planteur_id = ?", planteurID).Error
	return out, err
}

type ListParams struct {
	Page     int
	PageSize int
	Statut   string
	Kind     string
	Gateway  string
}

type ListResult struct {
	Items []Paiement
	Total int64
}

func (s *Service) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 200 {
		size = 50
	}

	q := s.db.WithContext(ctx).Model(&Paiement{})
	if in.Statut != "" {
		q = q.Where("statut = ?", in.Statut)
	}
	if in.Kind != "" {
		q = q.Where("kind = ?", in.Kind)
	}
	if in.Gateway != "" {
		q = q.Where("gateway = ?", in.Gateway)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Paiement
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}

// CreateObligation inserts a pending payment without contacting any
// gateway. Used when a souscription is approved: the acces-right
// obligation exists before the planteur picks a payment channel.
func (s *Service) CreateObligation(ctx context.Context, tx *gorm.DB, planteurID, plantationID, kind string, montant int64) (Paiement, error) {
	if montant <= 0 {
		return Paiement{}, ErrMontantInvalide
	}
	db := s.db.WithContext(ctx)
	if tx != nil {
		db = tx
	}
	now := time.Now()
	p := Paiement{
		ID:           uuid.NewString(),
		PlanteurID:   planteurID,
		PlantationID: plantationID,
		Kind:         kind,
		Montant:      montant,
		Statut:       StatusPending,
		Reference:    NewReference(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return p, db.Create(&p).Error
}

func description(kind string) string {
	if kind == KindAccessRight {
		return "Droit d'acces AgriCapital"
	}
	return "Cotisation AgriCapital"
}
