package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20 // 1MB

// decodeFlatBody reads a flat JSON object of string or number values.
// Numbers keep their literal text and an empty body is an empty object.
// Null, boolean, array and object values are skipped as if absent.
func decodeFlatBody(body io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		}
	}
	return fields, nil
}

// bindFields decodes the request body or answers 400 and returns false.
func (h *Handler) bindFields(c *gin.Context) (map[string]string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	fields, err := decodeFlatBody(c.Request.Body)
	if err != nil {
		h.log(c).Debug("bad request body", "error", err)
		sendError(c, "Bad JSON", http.StatusBadRequest)
		return nil, false
	}
	return fields, true
}
