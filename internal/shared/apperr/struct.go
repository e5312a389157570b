package apperr

type Kind string

type AppError struct {
	Kind      Kind
	PublicMsg string            // message affichable au client
	Fields    map[string]string // erreurs de validation champ par champ (optionnel)
	Err       error             // erreur interne (pour les logs)
}
