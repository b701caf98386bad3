package session

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"creators-club/internal/common/errors"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/metrics"
	"creators-club/internal/wizard"
)

const maxRequestBytes = 16 << 10

type Handler struct {
	registry *Registry
	logger   logger.Logger
}

func NewHandler(registry *Registry, log logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   log.WithFields(map[string]interface{}{"component": "wizard-api"}),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/flows", h.flows)
	mux.HandleFunc("POST /api/wizard", h.create)
	mux.HandleFunc("GET /api/wizard/{id}", h.get)
	mux.HandleFunc("PUT /api/wizard/{id}/fields", h.setFields)
	mux.HandleFunc("POST /api/wizard/{id}/advance", h.advance)
	mux.HandleFunc("POST /api/wizard/{id}/retreat", h.retreat)
	mux.HandleFunc("POST /api/wizard/{id}/submit", h.submit)
}

func (h *Handler) flows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"flows": h.registry.Flows()})
}

type createRequest struct {
	Flow string `json:"flow"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		errors.WriteHTTP(w, errors.NewInvalidPayloadError(err))
		return
	}

	s, err := h.registry.Create(req.Flow)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// setFields takes a JSON object of field name to value. Either every value
// is stored or none is.
func (h *Handler) setFields(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	var values map[string]string
	if err := decode(w, r, &values); err != nil {
		errors.WriteHTTP(w, errors.NewInvalidPayloadError(err))
		return
	}

	fields := make(map[wizard.Field]string, len(values))
	for name, v := range values {
		f, err := wizard.ParseField(name)
		if err != nil {
			errors.WriteHTTP(w, errors.NewInvalidPayloadError(err))
			return
		}
		fields[f] = v
	}

	if err := s.Wizard().SetFields(fields); err != nil {
		errors.WriteHTTP(w, wizardError(err))
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "advance", func(wz *wizard.Wizard) bool { return wz.Advance(r.Context()) })
}

func (h *Handler) retreat(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "retreat", func(wz *wizard.Wizard) bool { return wz.Retreat() })
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, action string, move func(*wizard.Wizard) bool) {
	s, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	moved := move(s.Wizard())
	metrics.WizardTransitions.WithLabelValues(s.Flow, action, strconv.FormatBool(moved)).Inc()
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	if err := s.Wizard().Submit(r.Context()); err != nil {
		metrics.WizardTransitions.WithLabelValues(s.Flow, "submit", "false").Inc()
		h.logger.Warn("Submit refused", map[string]interface{}{
			"sessionId": s.ID,
			"step":      s.Wizard().Step().String(),
			"error":     err,
		})
		errors.WriteHTTP(w, wizardError(err))
		return
	}
	metrics.WizardTransitions.WithLabelValues(s.Flow, "submit", "true").Inc()
	writeJSON(w, http.StatusAccepted, s.View())
}

func wizardError(err error) error {
	switch {
	case stderrors.Is(err, wizard.ErrLocked):
		return errors.NewWizardLockedError(err.Error())
	case stderrors.Is(err, wizard.ErrIncomplete):
		return errors.NewApplicationValidationFailedError(err.Error())
	default:
		return errors.NewInvalidPayloadError(err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return stderrors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
