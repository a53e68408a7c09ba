package utils

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a machine-readable rejection. Reason drives the UI
// message; message is for humans and logs.
func Error(w http.ResponseWriter, status int, reason, message string) {
	JSON(w, status, map[string]string{
		"error":  message,
		"reason": reason,
	})
}
