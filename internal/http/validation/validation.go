package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldErrors map[string]string

// FromBindError convertit une erreur de binding en map champ->message.
// dst: pointeur du struct binde (pour lire les tags json)
func FromBindError(err error, dst any) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			key := fieldKey(dst, fe.StructField())
			out[key] = messageForTag(fe.Tag(), fe.Param())
		}
		return out
	}

	// Autres erreurs de binding (type mismatch etc.)
	out["_"] = "Donnees invalides."
	return out
}

func fieldKey(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	f, ok := t.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	tag := f.Tag.Get("json")
	if tag == "" {
		return strings.ToLower(structField)
	}
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return strings.ToLower(structField)
	}
	return tag
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "Ce champ est obligatoire."
	case "email":
		return "Adresse e-mail invalide."
	case "min":
		return "Minimum " + param + " caracteres."
	case "max":
		return "Maximum " + param + " caracteres."
	case "oneof":
		return "Valeur non autorisee."
	case "gt":
		return "Doit etre superieur a " + param + "."
	case "e164":
		return "Numero de telephone invalide (format international attendu)."
	default:
		return "Valeur invalide."
	}
}
