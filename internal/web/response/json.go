package response

import (
	"encoding/json"
	"net/http"
)

// JSON renders data as a JSON response with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		RenderError(w, http.StatusInternalServerError, err)
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// OK renders data with status 200
func OK(w http.ResponseWriter, data interface{}) error {
	return JSON(w, http.StatusOK, data)
}
