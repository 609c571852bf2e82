package onboarding

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orbitlabs/orbit-server/internal/app"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/server"
	"github.com/orbitlabs/orbit-server/internal/service/rooms"
)

// Registrar ties the onboarding service into the HTTP router
type Registrar struct {
	appCtx    *app.AppContext
	placement *rooms.Service
}

// NewRegistrar creates a new Registrar for the onboarding service
func NewRegistrar(appCtx *app.AppContext, placement *rooms.Service) *Registrar {
	return &Registrar{appCtx: appCtx, placement: placement}
}

// Register attaches the onboarding endpoints under /api/onboarding
func (rg *Registrar) Register(r *mux.Router) {
	svc := NewService(rg.appCtx, rg.placement)
	sub := r.PathPrefix("/api/onboarding").Subrouter()

	sub.HandleFunc("/complete", svc.handleComplete).Methods("POST")
	sub.HandleFunc("/username", svc.handleUsername).Methods("POST")
}

func (s *Service) handleComplete(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	var params CompleteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		server.WriteError(w, svcErr.Validation("invalid request body"))
		return
	}

	result, err := s.Complete(r.Context(), caller, params)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}

func (s *Service) handleUsername(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]string{"username": s.NewUsername()})
}
