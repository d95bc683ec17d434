package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parley/internal/middleware"
	"parley/internal/services"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// writeError maps service error kinds to HTTP statuses. Store failures are
// logged with detail and reported generically.
func writeError(c *gin.Context, tag string, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	}
	if status == http.StatusInternalServerError {
		log.Printf("%s[err] %v", tag, err)
	} else {
		log.Printf("%s[fail] status=%d %v", tag, status, err)
	}
	c.JSON(status, gin.H{"error": msg})
}

// parseUserList accepts either a JSON array of ids or a string holding a
// JSON-encoded array, which is what form-based clients send.
func parseUserList(raw json.RawMessage) ([]string, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("users is required")
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, err
		}
		raw = json.RawMessage(encoded)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, errors.New("users must be an array of user ids")
	}
	return ids, nil
}
