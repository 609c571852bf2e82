package discovery

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orbitlabs/orbit-server/internal/app"
	"github.com/orbitlabs/orbit-server/internal/server"
)

// Registrar ties the discovery service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery endpoints under /api/discovery
func (rg *Registrar) Register(r *mux.Router) {
	svc := NewService(rg.appCtx, nil)
	sub := r.PathPrefix("/api/discovery").Subrouter()

	sub.HandleFunc("/feed", svc.handleFeed).Methods("GET")
}

func (s *Service) handleFeed(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	feed, err := s.Feed(r.Context(), caller)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"feed": feed})
}
