package errors

import (
	"encoding/json"
	"net/http"
)

// WriteHTTP answers with err as a JSON StandardError and the status mapped
// from its code.
func WriteHTTP(w http.ResponseWriter, err error) {
	stdErr := Normalize(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(stdErr)
}
