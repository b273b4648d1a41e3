// internal/httpx/respond.go
package httpx

import (
	"encoding/json"
	"log"
	"net/http"

	"rentnexus/internal/fault"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Printf("write response: %v", err)
		}
	}
}

// WriteError maps a fault kind to its status and emits the client-safe
// message. Internal causes are logged here and never leak.
func WriteError(w http.ResponseWriter, err error) {
	if fault.KindOf(err) == fault.KindInternal {
		log.Printf("internal error: %v", err)
	}
	WriteJSON(w, fault.HTTPStatus(err), map[string]string{"error": fault.Message(err)})
}
