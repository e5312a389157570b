package commissions

import "time"

// Commission: retrocession au conseiller quand un droit d'acces est regle.
// Au plus une ligne par paiement.
type Commission struct {
	ID           string  `gorm:"type:char(36);primaryKey" json:"id"`
	PaiementID   string  `gorm:"type:char(36);not null;uniqueIndex:ux_commissions_paiement_id" json:"paiement_id"`
	ConseillerID string  `gorm:"type:char(36);not null;index:ix_commissions_conseiller_id" json:"conseiller_id"`
	EquipeID     *string `gorm:"type:char(36);index:ix_commissions_equipe_id" json:"equipe_id,omitempty"`

	Montant int64   `gorm:"not null" json:"montant"` // FCFA
	Taux    float64 `gorm:"not null" json:"taux"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Commission) TableName() string { return "commissions" }
