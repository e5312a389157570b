package souscriptions

import "errors"

var (
	ErrIntrouvable      = errors.New("souscription introuvable")
	ErrEtapeInconnue    = errors.New("etape inconnue")
	ErrDossierIncomplet = errors.New("dossier incomplet")
	ErrDejaSoumise      = errors.New("souscription deja soumise")
	ErrNonSoumise       = errors.New("souscription non soumise")
	ErrForbidden        = errors.New("acces refuse")
)
