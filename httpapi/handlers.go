package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hupe1980/binrange"
	"github.com/hupe1980/binrange/model"
)

// errorBody is the JSON error envelope used for every non-2xx response.
type errorBody struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// storeTimings reports where time went during a store-times request.
type storeTimings struct {
	TotalMillis       int64 `json:"totalMillis"`
	DeserializeMillis int64 `json:"deserializeMillis"`
	SaveMillis        int64 `json:"saveMillis"`
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.readPRes(w, r)
	if !ok {
		return
	}
	if !s.storePRes(w, r, msg) {
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStoreTimes(w http.ResponseWriter, r *http.Request) {
	total := time.Now()

	deserializeStart := time.Now()
	msg, ok := s.readPRes(w, r)
	if !ok {
		return
	}
	deserialize := time.Since(deserializeStart)

	saveStart := time.Now()
	if !s.storePRes(w, r, msg) {
		return
	}
	save := time.Since(saveStart)

	s.logger.InfoContext(r.Context(), "store timing",
		"total_ms", time.Since(total).Milliseconds(),
		"deserialize_ms", deserialize.Milliseconds(),
		"save_ms", save.Milliseconds(),
	)

	s.writeJSON(w, r, http.StatusOK, storeTimings{
		TotalMillis:       time.Since(total).Milliseconds(),
		DeserializeMillis: deserialize.Milliseconds(),
		SaveMillis:        save.Milliseconds(),
	})
}

func (s *Server) handleMethodURL(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("pan")
	if raw == "" {
		s.writeError(w, r, http.StatusBadRequest, "Bad Request", "Required parameter 'pan' is missing")
		return
	}

	pan, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Bad Request", "Parameter 'pan' must be a number")
		return
	}

	match, err := s.store.FindByPAN(pan)
	if err != nil {
		var np *binrange.ErrNegativePAN
		switch {
		case errors.As(err, &np):
			s.writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		case errors.Is(err, binrange.ErrNotFound):
			s.writeError(w, r, http.StatusNotFound, "Not Found",
				"No matching card range found for PAN: "+raw)
		default:
			s.writeError(w, r, http.StatusInternalServerError, "Internal Server Error", err.Error())
		}
		return
	}

	s.writeJSON(w, r, http.StatusOK, match)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset()
	w.WriteHeader(http.StatusOK)
}

// readPRes decodes and validates the request body. On failure it writes
// the error response and returns ok=false.
func (s *Server) readPRes(w http.ResponseWriter, r *http.Request) (*model.PResMessage, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error())
		} else {
			s.writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		}
		return nil, false
	}

	var msg model.PResMessage
	if err := s.codec.Unmarshal(body, &msg); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return nil, false
	}

	if err := msg.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return nil, false
	}
	return &msg, true
}

// storePRes stores a validated message. On failure it writes the error
// response and returns false.
func (s *Server) storePRes(w http.ResponseWriter, r *http.Request, msg *model.PResMessage) bool {
	if err := s.store.StorePResMessage(msg); err != nil {
		if binrange.IsValidationError(err) {
			s.writeError(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		} else {
			s.writeError(w, r, http.StatusInternalServerError, "Internal Server Error", err.Error())
		}
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := s.codec.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "response encode failed", "error", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errText, message string) {
	s.writeJSON(w, r, status, errorBody{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Status:    status,
		Error:     errText,
		Message:   message,
		Path:      r.URL.Path,
	})
}
