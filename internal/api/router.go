// Package api assembles the HTTP API for purchase order evaluation and
// intake.
package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/api/handlers"
	"github.com/dvloznov/po-agents/internal/api/middleware"
)

// Router holds the handlers served by NewRouter.
type Router struct {
	Orders    *handlers.OrdersHandler
	Jobs      *handlers.JobsHandler
	Decisions *handlers.DecisionsHandler

	// AuthToken enables bearer auth on /api/ routes when set.
	AuthToken string
	Log       zerolog.Logger
}

// Handler returns the routed and wrapped http.Handler.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/orders/evaluate", post(rt.Orders.Evaluate))
	mux.HandleFunc("/api/orders/audit", post(rt.Orders.Audit))
	mux.HandleFunc("/api/orders/intake", post(rt.Orders.EnqueueIntake))
	mux.HandleFunc("/api/orders/upload", post(rt.Orders.Upload))

	mux.HandleFunc("/api/jobs", get(rt.Jobs.ListJobs))
	mux.HandleFunc("/api/jobs/", get(func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" || strings.Contains(jobID, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		rt.Jobs.GetJob(w, r, jobID)
	}))

	mux.HandleFunc("/api/decisions", get(rt.Decisions.ListDecisions))

	mux.HandleFunc("/health", get(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}))

	return middleware.Chain(mux,
		middleware.Recovery(rt.Log),
		middleware.RequestID,
		middleware.Logger(rt.Log),
		middleware.CORS,
		middleware.Auth(rt.AuthToken, "/health"),
	)
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return method(http.MethodPost, h)
}

func get(h http.HandlerFunc) http.HandlerFunc {
	return method(http.MethodGet, h)
}

func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			w.Header().Set("Allow", m)
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}
