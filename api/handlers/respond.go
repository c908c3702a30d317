package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/linesmerrill/city-reporter-api/config"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

// maxUploadBytes caps a multipart request
const maxUploadBytes = 50 << 20

// envelope is the success body every route answers with
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	body["success"] = true
	b, err := json.Marshal(body)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// writeError maps a reporting error to its status and writes it. Only the
// client-safe message leaves the process.
func writeError(w http.ResponseWriter, err error) {
	kind := reporting.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case reporting.KindValidation:
		status = http.StatusBadRequest
	case reporting.KindNotFound:
		status = http.StatusNotFound
	case reporting.KindDependency:
		status = http.StatusBadGateway
		if reporting.IsRetryable(err) {
			status = http.StatusGatewayTimeout
		}
	}
	config.ErrorKindStatus(reporting.MessageOf(err), string(kind), status, w, err)
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		config.ErrorKindStatus("request body is not valid JSON", string(reporting.KindValidation), http.StatusBadRequest, w, err)
		return false
	}
	return true
}

// pageFrom reads limit and skip, defaulting to 50 and 0
func pageFrom(r *http.Request) databases.Page {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		limit = databases.DefaultPageLimit
	}
	skip, _ := strconv.Atoi(q.Get("skip"))
	return databases.NewPage(limit, skip)
}
