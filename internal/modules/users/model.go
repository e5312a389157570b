package users

import "time"

// Utilisateur: compte back-office (admin, superviseur, conseiller...).
// Le champ role reference roles.code du referentiel.
type Utilisateur struct {
	ID           string  `gorm:"type:char(36);primaryKey" json:"id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex:ux_utilisateurs_email" json:"email"`
	Nom          string  `gorm:"type:varchar(128);not null" json:"nom"`
	PasswordHash []byte  `gorm:"type:bytea;not null" json:"-"`
	Role         string  `gorm:"type:varchar(32);not null;default:'conseiller'" json:"role"`
	EquipeID     *string `gorm:"type:char(36);index:ix_utilisateurs_equipe_id" json:"equipe_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Utilisateur) TableName() string { return "utilisateurs" }
