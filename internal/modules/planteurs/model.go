package planteurs

import "time"

// Planteur: souscripteur/abonne du programme de financement.
type Planteur struct {
	ID           string  `gorm:"type:char(36);primaryKey" json:"id"`
	Code         string  `gorm:"type:varchar(32);not null;uniqueIndex:ux_planteurs_code" json:"code"`
	Nom          string  `gorm:"type:varchar(128);not null" json:"nom"`
	Prenoms      string  `gorm:"type:varchar(128);not null" json:"prenoms"`
	Telephone    string  `gorm:"type:varchar(32);not null;uniqueIndex:ux_planteurs_telephone" json:"telephone"`
	Email        *string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Village      string  `gorm:"type:varchar(128);not null" json:"village"`
	RegionID     string  `gorm:"type:char(36);not null;index:ix_planteurs_region_id" json:"region_id"`
	EquipeID     *string `gorm:"type:char(36);index:ix_planteurs_equipe_id" json:"equipe_id,omitempty"`
	ConseillerID *string `gorm:"type:char(36)" json:"conseiller_id,omitempty"`

	// Compte portail. Null tant que le planteur n'a pas active son acces.
	PasswordHash []byte `gorm:"type:bytea" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Planteur) TableName() string { return "planteurs" }
