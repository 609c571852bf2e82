package chat

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orbitlabs/orbit-server/internal/app"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/realtime"
	"github.com/orbitlabs/orbit-server/internal/server"
)

// Registrar ties the chat service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
	hub    *realtime.Hub
}

// NewRegistrar creates a new Registrar for the chat service. The hub is
// shared with the websocket endpoint so REST sends reach live clients.
func NewRegistrar(appCtx *app.AppContext, hub *realtime.Hub) *Registrar {
	return &Registrar{appCtx: appCtx, hub: hub}
}

// Register attaches the chat endpoints under /api/chat plus the
// websocket stream under /ws/chat.
func (rg *Registrar) Register(r *mux.Router) {
	svc := NewService(rg.appCtx, rg.hub)

	sub := r.PathPrefix("/api/chat").Subrouter()
	sub.HandleFunc("/{conversation}/messages", svc.handleSend).Methods("POST")
	sub.HandleFunc("/{conversation}/messages", svc.handleHistory).Methods("GET")

	r.HandleFunc("/ws/chat/{conversation}", svc.handleStream).Methods("GET")
}

type sendBody struct {
	Body string `json:"body"`
}

func (s *Service) handleSend(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	var body sendBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		server.WriteError(w, svcErr.Validation("invalid request body"))
		return
	}

	msg, err := s.Send(r.Context(), caller, mux.Vars(r)["conversation"], body.Body)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, msg)
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	msgs, err := s.History(r.Context(), caller, mux.Vars(r)["conversation"])
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	conversation := mux.Vars(r)["conversation"]
	if err := s.Authorize(r.Context(), caller, conversation); err != nil {
		server.WriteError(w, err)
		return
	}

	realtime.ServeConversation(s.hub, s.appCtx.Logger, conversation, w, r)
}
