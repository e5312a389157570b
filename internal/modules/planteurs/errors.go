package planteurs

import "errors"

var (
	ErrIntrouvable        = errors.New("planteur introuvable")
	ErrIdentifiants       = errors.New("telephone ou mot de passe incorrect")
	ErrTelephoneDejaPris  = errors.New("telephone deja utilise")
	ErrCompteNonActive    = errors.New("compte portail non active")
)
