package handlers

import "net/http"

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "docubuddy",
	})
}

// Root handles GET /.
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "DocuBuddy backend API",
		"version": "0.1.0",
	})
}
