package paiements

import (
	"time"

	"gorm.io/datatypes"
)

const (
	KindAccessRight  = "access_right"
	KindContribution = "contribution"

	StatusPending = "pending"
	StatusValid   = "valid"
	StatusFailed  = "failed"
)

// Paiement: une obligation/tentative de paiement. pending est l'etat
// initial; valid et failed sont terminaux. montant_paye est renseigne
// si et seulement si le statut est valid.
type Paiement struct {
	ID           string `gorm:"type:char(36);primaryKey" json:"id"`
	PlanteurID   string `gorm:"type:char(36);not null;index:ix_paiements_planteur_id" json:"planteur_id"`
	PlantationID string `gorm:"type:char(36);not null;index:ix_paiements_plantation_id" json:"plantation_id"`

	Kind    string `gorm:"type:varchar(32);not null" json:"kind"`
	Montant int64  `gorm:"not null" json:"montant"` // FCFA, plus petite unite

	MontantPaye *int64 `json:"montant_paye,omitempty"`
	Statut      string `gorm:"type:varchar(16);not null;default:'pending';index:ix_paiements_statut" json:"statut"`

	// Reference marchande, generee par nous, unique par tentative.
	Reference string `gorm:"type:varchar(64);not null;uniqueIndex:ux_paiements_reference" json:"reference"`

	// Identifiant de transaction cote passerelle. Pose une seule fois a la
	// creation de la transaction, corrige au besoin par la verification.
	TransactionID *string `gorm:"type:varchar(128);index:ix_paiements_transaction_id" json:"transaction_id,omitempty"`
	Gateway       string  `gorm:"type:varchar(32);not null" json:"gateway"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Paiement) TableName() string { return "paiements" }

// GatewayEvent: journal append-only des livraisons webhook. Une ligne par
// livraison, doublons compris; l'idempotence vit sur la transition du
// paiement, pas sur ce journal.
type GatewayEvent struct {
	ID        string `gorm:"type:char(36);primaryKey" json:"id"`
	Gateway   string `gorm:"type:varchar(32);not null;index:ix_gateway_events_gateway" json:"gateway"`
	EventID   string `gorm:"type:varchar(128);not null;index:ix_gateway_events_event_id" json:"event_id"`
	EventType string `gorm:"type:varchar(64);not null" json:"event_type"`

	TransactionID string `gorm:"type:varchar(128)" json:"transaction_id"`
	Reference     string `gorm:"type:varchar(64);index:ix_gateway_events_reference" json:"reference"`
	Montant       int64  `json:"montant"`

	PayloadJSON datatypes.JSON `gorm:"type:json;not null" json:"payload"`

	ReceivedAt  time.Time  `gorm:"not null" json:"received_at"`
	Processed   bool       `gorm:"not null;default:false" json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	PaiementID  *string    `gorm:"type:char(36);index:ix_gateway_events_paiement_id" json:"paiement_id,omitempty"`
}

func (GatewayEvent) TableName() string { return "gateway_events" }
