package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/autolayout/pkg/buildinfo"
	"github.com/matzehuels/autolayout/pkg/diagram"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout"
)

// LayoutRequest is the body of POST /api/v1/layout.
type LayoutRequest struct {
	Direction         string               `json:"direction,omitempty"`
	PreviousDirection string               `json:"previous_direction,omitempty"`
	Nodes             []diagram.Node       `json:"nodes"`
	Edges             []diagram.Edge       `json:"edges"`
	Dimensions        diagram.Measurements `json:"dimensions"`
}

// LayoutResponse is the reply to a successful layout.
type LayoutResponse struct {
	Direction         diagram.Direction `json:"direction"`
	PreviousDirection diagram.Direction `json:"previous_direction"`
	Nodes             []diagram.Node    `json:"nodes"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.Config.MaxBodyBytes)

	var req LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeTooLarge, err, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	dir, prev, err := s.directions(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc := diagram.Document{Nodes: req.Nodes, Edges: req.Edges, Dimensions: req.Dimensions}
	if err := doc.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Dimensions == nil {
		req.Dimensions = diagram.Measurements{}
	}

	nodes, state, err := s.orch.Apply(r.Context(), layout.State{Previous: prev}, req.Dimensions, req.Nodes, req.Edges, dir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LayoutResponse{
		Direction:         state.Direction(),
		PreviousDirection: state.Previous,
		Nodes:             nodes,
	})
}

// directions parses the requested and remembered directions. An empty
// direction is passed on so that Apply falls back to the remembered one,
// which itself defaults to the server's configured direction.
func (s *Server) directions(req LayoutRequest) (dir, prev diagram.Direction, err error) {
	prev = s.opts.DefaultDirection
	if req.PreviousDirection != "" {
		if prev, err = diagram.ParseDirection(req.PreviousDirection); err != nil {
			return "", "", err
		}
	}
	if req.Direction != "" {
		if dir, err = diagram.ParseDirection(req.Direction); err != nil {
			return "", "", err
		}
	}
	return dir, prev, nil
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	info := s.opts.Engine
	if info.LayerSpacing == 0 {
		info.LayerSpacing = s.orch.LayerSpacing()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"engine":            info,
		"default_direction": s.opts.DefaultDirection,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Current())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", RequestIDFromContext(r.Context()), "code", code, "error", err)
	} else {
		s.logger.Debug("request rejected", "request_id", RequestIDFromContext(r.Context()), "code", code, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
