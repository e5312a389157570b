package souscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/modules/paiements"
	"agricapital.ci/app/internal/modules/plantations"
	"agricapital.ci/app/internal/storage"
)

type Service struct {
	db          *gorm.DB
	store       storage.Storage
	plantations *plantations.Repo
	paiements   *paiements.Service

	// Prix du droit d'acces, FCFA par hectare; fixe le montant de
	// l'obligation creee a l'approbation.
	unitPrice int64
}

func NewService(db *gorm.DB, store storage.Storage, plt *plantations.Repo, pay *paiements.Service, unitPrice int64) *Service {
	return &Service{db: db, store: store, plantations: plt, paiements: pay, unitPrice: unitPrice}
}

func (s *Service) Create(ctx context.Context, planteurID string) (Souscription, error) {
	now := time.Now()
	sub := Souscription{
		ID:         uuid.NewString(),
		PlanteurID: planteurID,
		Etape:      EtapeIdentite,
		Statut:     StatutBrouillon,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return sub, s.db.WithContext(ctx).Create(&sub).Error
}

func (s *Service) GetByID(ctx context.Context, id string) (Souscription, error) {
	var sub Souscription
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Souscription{}, ErrIntrouvable
	}
	return sub, err
}

func (s *Service) ListByPlanteur(ctx context.Context, planteurID string) ([]Souscription, error) {
	var out []Souscription
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out, "planteur_id = ?", planteurID).Error
	return out, err
}

type ListParams struct {
	Page     int
	PageSize int
	Statut   string
}

type ListResult struct {
	Items []Souscription
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

	q := s.db.WithContext(ctx).Model(&Souscription{})
	if in.Statut != "" {
		q = q.Where("statut = ?", in.Statut)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Souscription
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// UpdateEtape saves one wizard step payload. Only drafts are editable.
func (s *Service) UpdateEtape(ctx context.Context, id, planteurID, etape string, payload json.RawMessage) (Souscription, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return Souscription{}, err
	}
	if sub.PlanteurID != planteurID {
		return Souscription{}, ErrForbidden
	}
	if sub.Statut != StatutBrouillon {
		return Souscription{}, ErrDejaSoumise
	}

	updates := map[string]any{"etape": etape, "updated_at": time.Now()}
	switch etape {
	case EtapeIdentite:
		updates["identite"] = datatypes.JSON(payload)
	case EtapeParcelle:
		updates["parcelle"] = datatypes.JSON(payload)
	case EtapeDocuments, EtapePaiement:
		// rien a stocker sur la souscription elle-meme
	default:
		return Souscription{}, ErrEtapeInconnue
	}

	if err := s.db.WithContext(ctx).Model(&Souscription{}).
		Where("id = ?", sub.ID).Updates(updates).Error; err != nil {
		return Souscription{}, err
	}
	return s.GetByID(ctx, id)
}

type AddDocumentInput struct {
	Type        string
	Filename    string
	ContentType string
	Size        int64
}

func (s *Service) AddDocument(ctx context.Context, id, planteurID string, r io.Reader, in AddDocumentInput) (Document, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if sub.PlanteurID != planteurID {
		return Document{}, ErrForbidden
	}
	if sub.Statut != StatutBrouillon {
		return Document{}, ErrDejaSoumise
	}

	put, err := s.store.Put(ctx, r, storage.PutInput{
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Size:        in.Size,
	})
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:             uuid.NewString(),
		SouscriptionID: sub.ID,
		Type:           in.Type,
		Key:            put.Key,
		URL:            put.URL,
		ContentType:    in.ContentType,
		CreatedAt:      time.Now(),
	}
	return doc, s.db.WithContext(ctx).Create(&doc).Error
}

func (s *Service) Documents(ctx context.Context, id string) ([]Document, error) {
	var out []Document
	err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&out, "souscription_id = ?", id).Error
	return out, err
}

// Submit passes the draft to review. Identite, parcelle and at least one
// document are required.
func (s *Service) Submit(ctx context.Context, id, planteurID string) (Souscription, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return Souscription{}, err
	}
	if sub.PlanteurID != planteurID {
		return Souscription{}, ErrForbidden
	}
	if sub.Statut != StatutBrouillon {
		return Souscription{}, ErrDejaSoumise
	}
	if len(sub.Identite) == 0 || len(sub.Parcelle) == 0 {
		return Souscription{}, ErrDossierIncomplet
	}

	var docs int64
	if err := s.db.WithContext(ctx).Model(&Document{}).
		Where("souscription_id = ?", sub.ID).Count(&docs).Error; err != nil {
		return Souscription{}, err
	}
	if docs == 0 {
		return Souscription{}, ErrDossierIncomplet
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&Souscription{}).
		Where("id = ? AND statut = ?", sub.ID, StatutBrouillon).
		Updates(map[string]any{
			"statut":       StatutSoumise,
			"etape":        EtapePaiement,
			"submitted_at": &now,
			"updated_at":   now,
		}).Error; err != nil {
		return Souscription{}, err
	}
	return s.GetByID(ctx, id)
}

// parcellePayload: champs attendus dans le blob parcelle a l'approbation.
type parcellePayload struct {
	RegionID   string  `json:"region_id"`
	Village    string  `json:"village"`
	Culture    string  `json:"culture"`
	Superficie float64 `json:"superficie"`
}

type ReviewResult struct {
	Souscription Souscription
	Plantation   *plantations.Plantation
	Obligation   *paiements.Paiement
}

// Approve valide le dossier: creation de la plantation et de l'obligation
// de droit d'acces (superficie x prix unitaire), le tout atomique.
func (s *Service) Approve(ctx context.Context, id string) (ReviewResult, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return ReviewResult{}, err
	}
	if sub.Statut != StatutSoumise {
		return ReviewResult{}, ErrNonSoumise
	}

	var pp parcellePayload
	if err := json.Unmarshal(sub.Parcelle, &pp); err != nil || pp.Superficie <= 0 {
		return ReviewResult{}, ErrDossierIncomplet
	}

	var res ReviewResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		plt := plantations.Plantation{
			ID:               uuid.NewString(),
			Code:             plantations.NewCode(pp.Village, now),
			PlanteurID:       sub.PlanteurID,
			RegionID:         pp.RegionID,
			Village:          pp.Village,
			Culture:          pp.Culture,
			SuperficieTotale: pp.Superficie,
			Statut:           plantations.StatutInactive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Create(&plt).Error; err != nil {
			return err
		}

		montant := int64(math.Round(pp.Superficie * float64(s.unitPrice)))
		obligation, err := s.paiements.CreateObligation(ctx, tx, sub.PlanteurID, plt.ID, paiements.KindAccessRight, montant)
		if err != nil {
			return err
		}

		if err := tx.Model(&Souscription{}).
			Where("id = ? AND statut = ?", sub.ID, StatutSoumise).
			Updates(map[string]any{
				"statut":        StatutValidee,
				"plantation_id": plt.ID,
				"reviewed_at":   &now,
				"updated_at":    now,
			}).Error; err != nil {
			return err
		}

		res.Plantation = &plt
		res.Obligation = &obligation
		return nil
	})
	if err != nil {
		return ReviewResult{}, err
	}

	res.Souscription, err = s.GetByID(ctx, id)
	return res, err
}

func (s *Service) Reject(ctx context.Context, id, motif string) (Souscription, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return Souscription{}, err
	}
	if sub.Statut != StatutSoumise {
		return Souscription{}, ErrNonSoumise
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&Souscription{}).
		Where("id = ? AND statut = ?", sub.ID, StatutSoumise).
		Updates(map[string]any{
			"statut":      StatutRejetee,
			"motif_rejet": motif,
			"reviewed_at": &now,
			"updated_at":  now,
		}).Error; err != nil {
		return Souscription{}, err
	}
	return s.GetByID(ctx, id)
}
