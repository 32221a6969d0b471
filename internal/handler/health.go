package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// DependencyCheck probes one backing dependency.
type DependencyCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler returns a health check endpoint. Any failing dependency
// turns the response into 503 and is named in the body.
func HealthHandler(checks ...DependencyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failures := make(map[string]string)
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				failures[c.Name] = err.Error()
			}
		}
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"errors": failures,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}
