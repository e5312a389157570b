package view

import "time"

// PaiementDetail is the admin-facing payment row, enriched with the
// planteur and plantation labels the list screens join in.
type PaiementDetail struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Kind      string `json:"kind"`
	Statut    string `json:"statut"`
	Gateway   string `json:"gateway"`

	Montant        int64  `json:"montant"`
	MontantLabel   string `json:"montant_label"`
	MontantPaye    *int64 `json:"montant_paye,omitempty"`
	TransactionID  string `json:"transaction_id,omitempty"`
	PlanteurID     string `json:"planteur_id"`
	PlanteurNom    string `json:"planteur_nom,omitempty"`
	PlantationID   string `json:"plantation_id"`
	PlantationCode string `json:"plantation_code,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type PaiementList struct {
	Items []PaiementDetail `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
}
