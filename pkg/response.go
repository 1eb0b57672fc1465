package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
	HTML string
}{
	JSON: "application/json",
	Text: "text/plain",
	HTML: "text/html",
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponseBytes(w, ContentType.Text, []byte(message), http.StatusOK)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

// SendJsonResponse marshals the given payload and writes it with the given status code
func SendJsonResponse(w http.ResponseWriter, statusCode int, payload interface{}) {
	respBytes, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("send json response, marshal payload: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, statusCode)
}
