package handler

import (
	"net/http"

	"github.com/Rrens/admission-chat/internal/admission"
	"github.com/Rrens/admission-chat/internal/api/response"
)

// GetSuggestions returns the starter questions for an empty chat
func GetSuggestions(w http.ResponseWriter, r *http.Request) {
	response.OK(w, admission.SuggestedQuestions())
}

// GetDashboard returns the admission overview shown to administrators
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	response.OK(w, admission.Dashboard())
}
