package connect

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orbitlabs/orbit-server/internal/app"
	"github.com/orbitlabs/orbit-server/internal/db"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/server"
)

// Registrar ties the connect service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the connect service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the connect endpoints under /api/connect
func (rg *Registrar) Register(r *mux.Router) {
	svc := NewService(rg.appCtx)
	sub := r.PathPrefix("/api/connect").Subrouter()

	sub.HandleFunc("/requests", svc.handleSend).Methods("POST")
	sub.HandleFunc("/requests/inbound", svc.handleListInbound).Methods("GET")
	sub.HandleFunc("/requests/inbound/count", svc.handleCountInbound).Methods("GET")
	sub.HandleFunc("/requests/{id}/accept", svc.handleAccept).Methods("POST")
	sub.HandleFunc("/requests/{id}/reject", svc.handleReject).Methods("POST")
	sub.HandleFunc("/connections", svc.handleListAccepted).Methods("GET")
}

type sendRequestBody struct {
	ToUser string `json:"to_user"`
}

func (s *Service) handleSend(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	var body sendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		server.WriteError(w, svcErr.Validation("invalid request body"))
		return
	}

	req, err := s.Send(r.Context(), caller, body.ToUser)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, req)
}

func (s *Service) handleAccept(w http.ResponseWriter, r *http.Request) {
	s.handleResolve(w, r, db.StatusAccepted)
}

func (s *Service) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleResolve(w, r, db.StatusRejected)
}

func (s *Service) handleResolve(w http.ResponseWriter, r *http.Request, toStatus string) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	requestID := mux.Vars(r)["id"]

	var req *Request
	if toStatus == db.StatusAccepted {
		req, err = s.Accept(r.Context(), requestID, caller)
	} else {
		req, err = s.Reject(r.Context(), requestID, caller)
	}
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, req)
}

func (s *Service) handleListInbound(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	var token *string
	if t := r.URL.Query().Get("page_token"); t != "" {
		token = &t
	}

	requests, nextToken, err := s.ListInbound(r.Context(), caller, token)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	resp := map[string]interface{}{"requests": requests}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

func (s *Service) handleListAccepted(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	connections, err := s.ListAccepted(r.Context(), caller)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]interface{}{"connections": connections})
}

func (s *Service) handleCountInbound(w http.ResponseWriter, r *http.Request) {
	caller, err := server.CallerID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	count, err := s.CountInbound(r.Context(), caller)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}
