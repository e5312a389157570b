package paiements

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"
)

// VerifyService: chemin de secours quand le navigateur revient de la page
// de paiement avant le webhook. L'etat est re-derive cote serveur aupres
// de la passerelle, jamais depuis les parametres d'URL.
type VerifyService struct {
	db       *gorm.DB
	registry *Registry
	webhooks *WebhookService
	logger   *slog.Logger
}

func NewVerifyService(db *gorm.DB, registry *Registry, webhooks *WebhookService) *VerifyService {
	return &VerifyService{
		db:       db,
		registry: registry,
		webhooks: webhooks,
		logger:   slog.Default(),
	}
}

func (s *VerifyService) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

const (
	VerifyApproved = "approved"
	VerifyFailed   = "failed"
	VerifyPending  = "pending"
)

type VerifyResult struct {
	Status     string `json:"status"` // approved | failed | pending
	PaiementID string `json:"paiement_id,omitempty"`
	Reference  string `json:"reference,omitempty"`

	// Le portail sonde a nouveau apres ce delai, 5 tentatives maximum,
	// puis oriente vers le support.
	RetryInSeconds int `json:"retry_in_seconds,omitempty"`
}

// Verify interroge la passerelle pour un identifiant de transaction issu de
// l'URL de retour, puis applique exactement la meme transition gardee que le
// webhook. Un paiement local introuvable n'est pas une erreur: la ligne peut
// ne pas encore exister (course avec la creation), on repond "pending".
func (s *VerifyService) Verify(ctx context.Context, gatewayName, transactionID string) (VerifyResult, error) {
	gw, err := s.registry.Get(gatewayName)
	if err != nil {
		return VerifyResult{}, err
	}

	lookup, err := gw.LookupTransaction(ctx, transactionID)
	if err != nil {
		return VerifyResult{}, err
	}

	if lookup.State != TxApproved && lookup.State != TxFailed {
		return VerifyResult{Status: VerifyPending, RetryInSeconds: 4}, nil
	}

	reference := lookup.Reference
	if reference == "" {
		// La passerelle n'a pas renvoye la metadata: on retombe sur le
		// paiement qui porte deja ce transaction_id.
		var p Paiement
		err := s.db.WithContext(ctx).First(&p, "transaction_id = ?", transactionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VerifyResult{Status: VerifyPending, RetryInSeconds: 4}, nil
		}
		if err != nil {
			return VerifyResult{}, err
		}
		reference = p.Reference
	}

	outcome, err := s.webhooks.applyTransition(ctx, WebhookEvent{
		Type:          "verification",
		State:         lookup.State,
		TransactionID: transactionID,
		Reference:     reference,
		Montant:       lookup.Montant,
	})
	if err != nil {
		if errors.Is(err, ErrIntrouvable) {
			return VerifyResult{Status: VerifyPending, RetryInSeconds: 4}, nil
		}
		return VerifyResult{}, err
	}

	status := VerifyFailed
	if lookup.State == TxApproved {
		status = VerifyApproved
	}
	// La transition a pu etre appliquee par le webhook entre-temps: le
	// statut courant du paiement fait foi.
	if !outcome.Applied {
		switch outcome.Paiement.Statut {
		case StatusValid:
			status = VerifyApproved
		case StatusFailed:
			status = VerifyFailed
		default:
			status = VerifyPending
		}
	}

	res := VerifyResult{
		Status:     status,
		PaiementID: outcome.PaiementID,
		Reference:  reference,
	}
	if status == VerifyPending {
		res.RetryInSeconds = 4
	}

	if outcome.Applied && outcome.Paiement.Statut == StatusValid && s.webhooks.OnValid != nil {
		s.webhooks.OnValid(ctx, outcome.Paiement)
	}

	s.logger.InfoContext(ctx, "payment verification",
		"gateway", gatewayName, "transaction_id", transactionID,
		"status", status, "applied", outcome.Applied)
	return res, nil
}
