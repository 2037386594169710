package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"message": message})
}

// respondValidationErrors renders per-field messages as
// {"errors": {"field": ["message", ...]}}.
func respondValidationErrors(w http.ResponseWriter, err error) {
	fieldErrors := map[string][]string{}

	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, ve := range verrs {
			field := ve.Field()
			fieldErrors[field] = append(fieldErrors[field], validationMessage(ve))
		}
	}

	respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": fieldErrors})
}

// respondFieldError reports a single field failure in the same itemized
// shape respondValidationErrors uses.
func respondFieldError(w http.ResponseWriter, field, message string) {
	respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
		"errors": map[string][]string{field: {message}},
	})
}

func validationMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return ve.Field() + " is required"
	case "email":
		return ve.Field() + " must be a valid email address"
	case "min":
		return ve.Field() + " must be at least " + ve.Param() + " characters"
	case "max":
		return ve.Field() + " must be at most " + ve.Param() + " characters"
	default:
		return ve.Field() + " is invalid"
	}
}
