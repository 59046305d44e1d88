package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/launchpass/scand/internal/scan"
)

// --- HTTP response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the stable error envelope: a machine-readable code plus a
// user-safe message.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: msg}})
}

// writeScanError classifies err into the scan taxonomy and writes its
// (code, message, status) triple. Unclassified errors surface as a generic
// retry-shortly 500.
func writeScanError(w http.ResponseWriter, err error) {
	se := scan.Classify(err)
	writeError(w, se.Status, string(se.Code), se.Message)
}

// requestUser returns the authenticated principal injected by the edge
// proxy, or "" for anonymous requests.
func requestUser(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
