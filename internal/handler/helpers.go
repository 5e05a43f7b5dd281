package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/binfleet/binfleet/internal/model"
)

// writeJSON serializes v and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the uniform failure envelope. The message is what the
// client sees; causes worth keeping go to the log, not the response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.APIResponse{Success: false, Message: message})
}

// writeServerError is the generic storage-failure response. Driver
// messages never reach clients.
func writeServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Server error")
}

// readJSON decodes the request body as JSON into v, closing the body.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// readCredentials accepts the login payload as either JSON or a classic
// POST form, returning trimmed email and password.
func readCredentials(r *http.Request) (email, password string) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := readJSON(r, &req); err == nil {
			return strings.TrimSpace(req.Email), req.Password
		}
		return "", ""
	}
	if err := r.ParseForm(); err != nil {
		return "", ""
	}
	return strings.TrimSpace(r.PostFormValue("email")), r.PostFormValue("password")
}

// queryInt extracts an integer query parameter with a default.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// pathID parses a chi URL parameter as an int64 ID.
func pathID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

// clientIP returns the request's remote IP without the port. RealIP
// middleware has already resolved forwarding headers.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 && !strings.HasSuffix(addr, "]") {
		return addr[:i]
	}
	return addr
}

// clampInt constrains val to [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
