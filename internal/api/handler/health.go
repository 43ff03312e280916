package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/api/response"
	"github.com/Rrens/admission-chat/internal/domain"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck reports ready once the session store answers a read
func ReadyCheck(kv domain.KVStore, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := kv.Get(r.Context(), key); err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Msg("Storage not ready")
			response.Error(w, http.StatusServiceUnavailable, "storage not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
