package souscriptions

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EtapeIdentite  = "identite"
	EtapeParcelle  = "parcelle"
	EtapeDocuments = "documents"
	EtapePaiement  = "paiement_droit"

	StatutBrouillon = "brouillon"
	StatutSoumise   = "soumise"
	StatutValidee   = "validee"
	StatutRejetee   = "rejetee"
)

// Souscription: dossier d'adhesion par etapes. Les contenus d'etape sont
// des blobs JSON, la structure exacte appartient au front.
type Souscription struct {
	ID         string `gorm:"type:char(36);primaryKey" json:"id"`
	PlanteurID string `gorm:"type:char(36);not null;index:ix_souscriptions_planteur_id" json:"planteur_id"`

	Etape  string `gorm:"type:varchar(32);not null;default:'identite'" json:"etape"`
	Statut string `gorm:"type:varchar(16);not null;default:'brouillon';index:ix_souscriptions_statut" json:"statut"`

	Identite datatypes.JSON `gorm:"type:json" json:"identite,omitempty"`
	Parcelle datatypes.JSON `gorm:"type:json" json:"parcelle,omitempty"`

	MotifRejet *string `gorm:"type:varchar(255)" json:"motif_rejet,omitempty"`

	// Renseigne a l'approbation.
	PlantationID *string `gorm:"type:char(36)" json:"plantation_id,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Souscription) TableName() string { return "souscriptions" }

// Document: piece jointe du dossier (CNI, photo de parcelle, contrat).
type Document struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	SouscriptionID string    `gorm:"type:char(36);not null;index:ix_documents_souscription_id" json:"souscription_id"`
	Type           string    `gorm:"type:varchar(32);not null" json:"type"`
	Key            string    `gorm:"type:varchar(255);not null" json:"key"`
	URL            string    `gorm:"type:varchar(512);not null" json:"url"`
	ContentType    string    `gorm:"type:varchar(128);not null" json:"content_type"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Document) TableName() string { return "documents_souscription" }
