package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-hr-session/authmodel"
	"github.com/jrsteele09/go-hr-session/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const contentTypeJSON = "application/json"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail writes a {"detail": "..."} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, authmodel.ErrorResponse{Detail: detail})
}

// writeFieldErrors writes a 422 whose detail lists the failing fields.
func writeFieldErrors(w http.ResponseWriter, fieldErrors []authmodel.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, authmodel.ErrorResponse{Detail: fieldErrors})
}

func missingField(name string) authmodel.FieldError {
	return authmodel.FieldError{Loc: []string{"body", name}, Msg: "field required", Type: "missing"}
}

func invalidField(name, msg string) authmodel.FieldError {
	return authmodel.FieldError{Loc: []string{"body", name}, Msg: msg, Type: "value_error"}
}

// decodeBody decodes a JSON request body into v, answering 422 itself when it can't.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFieldErrors(w, []authmodel.FieldError{{Loc: []string{"body"}, Msg: "invalid JSON body", Type: "json_invalid"}})
		return false
	}
	return true
}

func metricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return metrics.HandlerFor(gatherer)
}
