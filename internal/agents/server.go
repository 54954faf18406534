package agents

import (
	"net/http"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/api/middleware"
)

// NewServer serves one agent: JSON-RPC at "/", its card at the well-known
// path and a health probe at "/health".
func NewServer(card *a2a.AgentCard, executor a2asrv.AgentExecutor, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(a2asrv.WellKnownAgentCardPath, a2asrv.NewStaticAgentCardHandler(card))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"agent":  card.Name,
		})
	})
	mux.Handle("/", a2asrv.NewJSONRPCHandler(a2asrv.NewHandler(executor)))

	return middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)
}
