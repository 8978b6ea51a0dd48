package server

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/internal/render"
)

type agentInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	WelcomeHTML string `json:"welcome_html"`
}

type sessionInfo struct {
	ID          string `json:"id"`
	Agent       string `json:"agent"`
	Title       string `json:"title"`
	WelcomeHTML string `json:"welcome_html"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type renderEvent struct {
	HTML string `json:"html"`
}

type doneEvent struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Chunks int    `json:"chunks"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	var out []agentInfo
	for _, name := range chat.Names() {
		a, _ := chat.Lookup(name)
		out = append(out, agentInfo{Name: a.Name, Title: a.Title, WelcomeHTML: render.HTML(a.Welcome)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("agent")
	sess, err := s.sessions.Create(name)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownAgent) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Suggestions: chat.Suggest(name)})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sessionInfo{
		ID:          sess.ID,
		Agent:       sess.Agent.Name,
		Title:       sess.Agent.Title,
		WelcomeHTML: sess.Welcome(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("agent"), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req messageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, chat.ErrEmptyMessage.Error())
		return
	}

	ew := newEventWriter(w)
	sink := chat.SinkFunc(func(html string) {
		_ = ew.Send("render", renderEvent{HTML: html})
	})
	turn, err := sess.Send(r.Context(), req.Message, sink)
	switch {
	case errors.Is(err, chat.ErrTurnInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	done := doneEvent{OK: turn.Err == nil, Chunks: turn.Chunks}
	if turn.Err != nil {
		done.Error = turn.Err.Error()
	}
	if err := ew.Send("done", done); err != nil {
		s.log.Debug("client went away", zap.String("session", sess.ID), zap.Error(err))
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("agent"), r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
