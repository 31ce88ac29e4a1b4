package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/vgdist/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and answers with its code and status.
func writeError(w http.ResponseWriter, err error) {
	e := errors.Classify(err)
	writeJSON(w, errors.HTTPStatus(e.Code), errorBody{Error: errorDetail{Code: e.Code, Message: errors.UserMessage(e)}})
}
