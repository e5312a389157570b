package paiements

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/modules/commissions"
	"agricapital.ci/app/internal/modules/plantations"
)

// WebhookService applique au plus une transition terminale par paiement,
// quel que soit le nombre de livraisons. Le meme chemin de transition est
// partage avec la verification post-redirect (VerifyService).
type WebhookService struct {
	db          *gorm.DB
	logger      *slog.Logger
	unitPrice   int64 // FCFA par hectare de droit d'acces
	commissions *commissions.Service

	// OnValid est appele apres commit quand un paiement vient de passer a
	// valid (recu, SMS, evenement Kafka, invalidation de cache). Jamais
	// bloquant pour la reconciliation.
	OnValid func(ctx context.Context, p Paiement)
}

func NewWebhookService(db *gorm.DB, unitPrice int64, comm *commissions.Service) *WebhookService {
	return &WebhookService{
		db:          db,
		logger:      slog.Default(),
		unitPrice:   unitPrice,
		commissions: comm,
	}
}

func (s *WebhookService) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handle traite une livraison webhook deja verifiee et normalisee par
// l'adaptateur. L'insertion du journal est fatale (500, la passerelle
// reessaiera); tout echec en aval est journalise et avale pour que la
// passerelle ne parte pas en tempete de retries.
func (s *WebhookService) Handle(ctx context.Context, gatewayName string, ev WebhookEvent, rawBody []byte) error {
	payload, _ := json.RawMessage(rawBody).MarshalJSON()

	// 1. Journal d'audit, toujours, actionnable ou pas. Une ligne par
	// livraison: un doublon reste visible.
	ge := GatewayEvent{
		ID:            uuid.NewString(),
		Gateway:       gatewayName,
		EventID:       ev.EventID,
		EventType:     ev.Type,
		TransactionID: ev.TransactionID,
		Reference:     ev.Reference,
		Montant:       ev.Montant,
		PayloadJSON:   datatypes.JSON(payload),
		ReceivedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&ge).Error; err != nil {
		s.logger.ErrorContext(ctx, "gateway event insert failed",
			"gateway", gatewayName, "event_id", ev.EventID, "err", err)
		return err
	}

	// 2. Seuls approved/failed declenchent une transition. Le reste est
	// journalise puis ignore (200 quand meme).
	if ev.State != TxApproved && ev.State != TxFailed {
		s.logger.InfoContext(ctx, "gateway event ignored",
			"gateway", gatewayName, "event_id", ev.EventID, "type", ev.Type)
		return nil
	}
	if ev.Reference == "" {
		s.logger.WarnContext(ctx, "gateway event without reference",
			"gateway", gatewayName, "event_id", ev.EventID, "type", ev.Type)
		return nil
	}

	// 3-5. Transition gardee + activation + commission, une transaction.
	outcome, err := s.applyTransition(ctx, ev)
	if err != nil {
		// Avale: reconciliation manuelle possible depuis le journal.
		s.logger.ErrorContext(ctx, "payment transition failed",
			"gateway", gatewayName, "event_id", ev.EventID,
			"reference", ev.Reference, "err", err)
		return nil
	}

	// 6. L'evenement est marque traite et relie au paiement, meme quand la
	// transition etait un no-op (paiement deja terminal).
	if outcome.PaiementID != "" {
		now := time.Now()
		if err := s.db.WithContext(ctx).Model(&GatewayEvent{}).
			Where("id = ?", ge.ID).
			Updates(map[string]any{
				"processed":    true,
				"processed_at": &now,
				"paiement_id":  outcome.PaiementID,
			}).Error; err != nil {
			s.logger.ErrorContext(ctx, "gateway event stamp failed",
				"event_id", ev.EventID, "err", err)
			return nil
		}
	}

	if outcome.Applied && outcome.Paiement.Statut == StatusValid && s.OnValid != nil {
		s.OnValid(ctx, outcome.Paiement)
	}

	s.logger.InfoContext(ctx, "gateway event processed",
		"gateway", gatewayName, "event_id", ev.EventID,
		"reference", ev.Reference, "applied", outcome.Applied)
	return nil
}

type transitionOutcome struct {
	Applied    bool // la transition a effectivement eu lieu sur cette livraison
	PaiementID string
	Paiement   Paiement
}

// applyTransition est le coeur idempotent: un seul UPDATE conditionnel
// (uniquement depuis pending), jamais de read-then-write. Deux livraisons
// concurrentes pour la meme reference ne peuvent pas appliquer deux fois
// l'increment d'activation.
func (s *WebhookService) applyTransition(ctx context.Context, ev WebhookEvent) (transitionOutcome, error) {
	var out transitionOutcome

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Paiement
		if err := tx.First(&p, "reference = ?", ev.Reference).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrIntrouvable
			}
			return err
		}
		out.PaiementID = p.ID

		now := time.Now()
		updates := map[string]any{"updated_at": now}
		if ev.State == TxApproved {
			updates["statut"] = StatusValid
			updates["montant_paye"] = ev.Montant
			updates["paid_at"] = &now
		} else {
			updates["statut"] = StatusFailed
		}
		if ev.TransactionID != "" {
			updates["transaction_id"] = ev.TransactionID
		}

		res := tx.Model(&Paiement{}).
			Where("id = ? AND statut = ?", p.ID, StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Deja terminal: no-op, l'evenement reste journalise.
			out.Paiement = p
			return nil
		}
		out.Applied = true

		p.Statut = updates["statut"].(string)
		p.UpdatedAt = now
		if ev.State == TxApproved {
			m := ev.Montant
			p.MontantPaye = &m
			p.PaidAt = &now
		}
		if ev.TransactionID != "" {
			tid := ev.TransactionID
			p.TransactionID = &tid
		}
		out.Paiement = p

		if ev.State == TxApproved && p.Kind == KindAccessRight {
			hectares := float64(ev.Montant) / float64(s.unitPrice)
			if _, err := plantations.ApplyActivation(tx, p.PlantationID, hectares); err != nil {
				return err
			}
			if err := s.commissions.Accrue(ctx, tx, p.ID, p.PlanteurID, ev.Montant); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return transitionOutcome{}, err
	}
	return out, nil
}
