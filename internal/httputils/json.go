package httputils

import (
	"encoding/json"
	"net/http"
)

// Response status values carried in every JSON body
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Message is the body shape shared by every endpoint: a human readable
// message and a success/error marker.
type Message struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// WriteJSON encodes body as the JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// WriteError writes {"message": msg, "status": "error"} with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, Message{Message: msg, Status: StatusError})
}

// WriteSuccess writes {"message": msg, "status": "success"} with 200 OK.
func WriteSuccess(w http.ResponseWriter, msg string) error {
	return WriteJSON(w, http.StatusOK, Message{Message: msg, Status: StatusSuccess})
}
