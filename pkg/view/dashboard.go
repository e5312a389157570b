package view

// DashboardStats feeds the back-office home screen. totaux in FCFA.
type DashboardStats struct {
	PlanteursTotal     int64 `json:"planteurs_total"`
	PlantationsTotal   int64 `json:"plantations_total"`
	PlantationsActives int64 `json:"plantations_actives"`

	SouscriptionsEnCours int64 `json:"souscriptions_en_cours"`
	PaiementsPending     int64 `json:"paiements_pending"`
	PaiementsValid       int64 `json:"paiements_valid"`
	PaiementsFailed      int64 `json:"paiements_failed"`

	MontantEncaisse      int64   `json:"montant_encaisse"`
	MontantEncaisseLabel string  `json:"montant_encaisse_label"`
	SuperficieActivee    float64 `json:"superficie_activee"`

	ParGateway []GatewaySlice `json:"par_gateway"`
	ParRegion  []RegionSlice  `json:"par_region"`
}

type GatewaySlice struct {
	Gateway  string `json:"gateway"`
	Nombre   int64  `json:"nombre"`
	Encaisse int64  `json:"encaisse"`
}

// RegionSlice: hectares actives par region.
type RegionSlice struct {
	RegionID string  `json:"region_id"`
	Region   string  `json:"region"`
	Hectares float64 `json:"hectares"`
}
