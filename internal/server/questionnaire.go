package server

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/questionnaire"
	"github.com/mithrel/classkit/pkg/api"
)

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.quest.Autosave.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	var d api.Draft
	if err := decodeBody(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	s.quest.Autosave.Discard()
	changed, err := s.quest.Drafts.Save(r.Context(), d)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// handlePatchDraft queues field edits; they are written once edits have
// been quiet for questionnaire.autosave_ms.
func (s *Server) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	var fields api.Draft
	if err := decodeBody(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	s.quest.Autosave.Set(fields)
	writeJSON(w, http.StatusAccepted, map[string]bool{"pending": true})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.quest.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, err := s.quest.Prepare(r.Context())
	if err != nil {
		var ve *questionnaire.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: questionnaire.ErrInvalid.Error(), Fields: ve.Fields})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ew := newEventWriter(w)
	rc, err := s.quest.Analyzer.Run(r.Context(), sub, func(p questionnaire.Progress) {
		_ = ew.Send("progress", p)
	})
	if err != nil {
		s.log.Warn("submission aborted", zap.Error(err))
		if !ew.Started() {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		_ = ew.Send("error", map[string]string{"error": err.Error()})
		return
	}
	_ = ew.Send("done", rc)
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		limit = n
	}
	subs, err := s.quest.Submissions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if subs == nil {
		subs = []api.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}
