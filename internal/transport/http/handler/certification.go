package handler

import (
	"net/http"

	"github.com/notifica-api/internal/certification"
)

// ListCertificationLevels returns every level's requirements and price.
// Serving this straight from the policy table keeps pricing and dispatch
// behavior from ever diverging.
func ListCertificationLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, certification.All())
}
