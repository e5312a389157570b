package plantations

import "time"

const (
	StatutInactive  = "inactive"
	StatutPartielle = "partiellement_active"
	StatutComplete  = "active"
)

// Plantation: parcelle sous contrat. La superficie activee ne peut que
// croitre, bornee par la superficie totale.
type Plantation struct {
	ID         string `gorm:"type:char(36);primaryKey" json:"id"`
	Code       string `gorm:"type:varchar(64);not null;uniqueIndex:ux_plantations_code" json:"code"`
	PlanteurID string `gorm:"type:char(36);not null;index:ix_plantations_planteur_id" json:"planteur_id"`
	RegionID   string `gorm:"type:char(36);not null;index:ix_plantations_region_id" json:"region_id"`
	Village    string `gorm:"type:varchar(128);not null" json:"village"`
	Culture    string `gorm:"type:varchar(64);not null" json:"culture"`

	SuperficieTotale  float64    `gorm:"not null" json:"superficie_totale"`
	SuperficieActivee float64    `gorm:"not null;default:0" json:"superficie_activee"`
	ActivatedAt       *time.Time `json:"activated_at,omitempty"`
	Statut            string     `gorm:"type:varchar(32);not null;default:'inactive'" json:"statut"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Plantation) TableName() string { return "plantations" }
