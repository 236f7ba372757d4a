package handlers

import (
	"net/http"
	"regexp"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// validator collects per-field violations so a response can report all of
// them at once.
type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{errors: make(map[string]string)}
}

func (v *validator) check(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *validator) checkEmail(email string) {
	v.check(email != "", "email", "must be provided")
	v.check(emailRegexp.MatchString(email), "email", "must be a valid email address")
}

func (v *validator) valid() bool {
	return len(v.errors) == 0
}

func (h *Handler) sendValidationErrors(w http.ResponseWriter, v *validator) {
	h.sendJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": v.errors})
}
