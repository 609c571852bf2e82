package rooms

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orbitlabs/orbit-server/internal/app"
	"github.com/orbitlabs/orbit-server/internal/server"
)

// Registrar ties the rooms service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
}

// NewRegistrar creates a new Registrar for the rooms service. The
// service is shared with onboarding, which calls Place directly.
func NewRegistrar(appCtx *app.AppContext, svc *Service) *Registrar {
	if svc == nil {
		svc = NewService(appCtx, nil)
	}
	return &Registrar{appCtx: appCtx, svc: svc}
}

// Register attaches the room endpoints under /api/rooms
func (rg *Registrar) Register(r *mux.Router) {
	svc := rg.svc
	sub := r.PathPrefix("/api/rooms").Subrouter()

	sub.HandleFunc("/{id}", svc.handleGet).Methods("GET")
	sub.HandleFunc("/{id}/members", svc.handleMembers).Methods("GET")
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	room, err := s.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, room)
}

func (s *Service) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.Members(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string][]string{"members": members})
}
