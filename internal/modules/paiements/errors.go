package paiements

import "errors"

var (
	ErrIntrouvable        = errors.New("paiement introuvable")
	ErrMontantInvalide    = errors.New("montant invalide")
	ErrPlantationInactive = errors.New("plantation deja entierement activee")
	ErrGatewayInconnue    = errors.New("passerelle inconnue")
	ErrForbidden          = errors.New("acces refuse")
)
