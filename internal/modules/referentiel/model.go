package referentiel

import (
	"time"

	"gorm.io/datatypes"
)

// Donnees de reference: regions, equipes terrain, roles back-office.

type Region struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(16);not null;uniqueIndex:ux_regions_code" json:"code"`
	Nom       string    `gorm:"type:varchar(128);not null" json:"nom"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Region) TableName() string { return "regions" }

type Equipe struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"id"`
	Nom           string    `gorm:"type:varchar(128);not null" json:"nom"`
	RegionID      string    `gorm:"type:char(36);not null;index:ix_equipes_region_id" json:"region_id"`
	ResponsableID *string   `gorm:"type:char(36)" json:"responsable_id,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (Equipe) TableName() string { return "equipes" }

// Role porte la formule de commission des conseillers et les droits
// d'acces du back-office.
type Role struct {
	ID                string         `gorm:"type:char(36);primaryKey" json:"id"`
	Code              string         `gorm:"type:varchar(32);not null;uniqueIndex:ux_roles_code" json:"code"`
	Nom               string         `gorm:"type:varchar(128);not null" json:"nom"`
	TauxCommission    float64        `gorm:"not null;default:0" json:"taux_commission"`
	FormuleCommission string         `gorm:"type:varchar(255);not null;default:''" json:"formule_commission"`
	Permissions       datatypes.JSON `gorm:"type:json" json:"permissions"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (Role) TableName() string { return "roles" }
