package plantations

import "errors"

var (
	ErrIntrouvable        = errors.New("plantation introuvable")
	ErrSuperficieInvalide = errors.New("superficie invalide")
)
