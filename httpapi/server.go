// Package httpapi adapts the chat core to the original HTTP surface.
// It only parses requests, maps error kinds to status codes and shapes
// responses; every rule lives below it.
package httpapi

import (
	"batepapo/domain"
	"batepapo/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// userHeader carries the acting participant's name, as in the original
// service.
const userHeader = "User"

type Server struct {
	log    *slog.Logger
	chat   services.IChatService
	router chi.Router
}

func NewServer(log *slog.Logger, chat services.IChatService, metricsHandler http.Handler) *Server {
	s := &Server{log: log, chat: chat}

	r := chi.NewRouter()
	r.Post("/participants", s.handleJoin)
	r.Get("/participants", s.handleListParticipants)
	r.Post("/status", s.handleHeartbeat)
	r.Delete("/status", s.handleLeave)
	r.Post("/messages", s.handlePostMessage)
	r.Get("/messages", s.handleListMessages)
	r.Put("/messages/{id}", s.handleEditMessage)
	r.Delete("/messages/{id}", s.handleDeleteMessage)
	r.Handle("/metrics", metricsHandler)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

type joinBody struct {
	Name string `json:"name"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	participant, _, err := s.chat.Join(r.Context(), domain.JoinCommand{Name: body.Name})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toParticipantDTO(participant))
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.chat.ListParticipants(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	dtos := make([]participantDTO, 0, len(participants))
	for _, p := range participants {
		dtos = append(dtos, toParticipantDTO(p))
	}
	s.writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Heartbeat(r.Context(), r.Header.Get(userHeader)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Leave(r.Context(), r.Header.Get(userHeader)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type messageBody struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Kind string `json:"type"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var body messageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	msg, err := s.chat.PostMessage(r.Context(), domain.PostMessageCommand{
		From: r.Header.Get(userHeader),
		To:   body.To,
		Text: body.Text,
		Kind: domain.Kind(body.Kind),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toMessageDTO(msg))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	filter := domain.Filter{
		Viewer:      r.Header.Get(userHeader),
		NewestFirst: r.URL.Query().Get("order") == "desc",
	}
	// The original treats a falsy or unparsable limit as "return all",
	// so anything non-positive just drops the bound.
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	messages, err := s.chat.ListMessages(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dtos := make([]messageDTO, 0, len(messages))
	for _, m := range messages {
		dtos = append(dtos, toMessageDTO(m))
	}
	s.writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var body editBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	msg, err := s.chat.EditMessage(r.Context(), id, r.Header.Get(userHeader), patchFrom(body))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := s.chat.DeleteMessage(r.Context(), id, r.Header.Get(userHeader)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// editBody uses pointers so an absent field ("keep current value") is
// distinguishable from an explicit empty one, which revalidation must
// reject like the original's edit schema does.
type editBody struct {
	To   *string `json:"to"`
	Text *string `json:"text"`
	Kind *string `json:"type"`
}

func patchFrom(body editBody) domain.Patch {
	patch := domain.Patch{To: body.To, Text: body.Text}
	if body.Kind != nil {
		kind := domain.Kind(*body.Kind)
		patch.Kind = &kind
	}
	return patch
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", "err", err)
	}
}
