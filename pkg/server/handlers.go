package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/vango-dev/selsync/internal/errors"
	"github.com/vango-dev/selsync/pkg/dispatch"
	"github.com/vango-dev/selsync/pkg/selection"
)

// maxBodyBytes bounds PUT /api/selection bodies.
const maxBodyBytes = 1 << 20

// SelectionBody is the JSON body of the selection endpoints.
type SelectionBody struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	select {
	case <-s.loop.Done():
		status = http.StatusServiceUnavailable
		body["status"] = "stopped"
	default:
	}
	writeJSON(w, status, body)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	var items []string
	err := s.loop.Call(r.Context(), func() error {
		items = s.model.Items()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSelection(w, items)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	var body SelectionBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, r, errors.New("E160").Wrap(err))
		return
	}
	if err := s.validate(body.Items); err != nil {
		s.writeError(w, r, err)
		return
	}

	var items []string
	err := s.loop.Call(r.Context(), func() error {
		if err := s.model.Update(body.Items...); err != nil {
			return err
		}
		items = s.model.Items()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSelection(w, items)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.loop.Call(r.Context(), func() error {
		s.model.Refresh()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validate(items []string) error {
	if len(s.config.Options) == 0 {
		return nil
	}
	for _, item := range items {
		if !slices.Contains(s.config.Options, item) {
			return errors.New("E161").Wrap(fmt.Errorf("%q is not an option", item))
		}
	}
	return nil
}

// writeError maps err to a status code and writes it as a coded JSON error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		coded  *errors.Error
	)
	switch {
	case errors.HasCode(err, "E160"):
		status = http.StatusBadRequest
	case errors.HasCode(err, "E161"):
		status = http.StatusUnprocessableEntity
	case stderrors.Is(err, selection.ErrDisposed):
		status = http.StatusConflict
		coded = errors.New("E001").Wrap(err)
	case stderrors.Is(err, dispatch.ErrQueueFull), stderrors.Is(err, dispatch.ErrClosed):
		status = http.StatusServiceUnavailable
		coded = errors.New("E003").Wrap(err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}
	if coded == nil {
		coded = errors.FromError(err, "")
	}

	s.logger.Warn("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintln(w, coded.FormatJSON())
}

func writeSelection(w http.ResponseWriter, items []string) {
	if items == nil {
		items = []string{}
	}
	writeJSON(w, http.StatusOK, SelectionBody{Items: items, Count: len(items)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
