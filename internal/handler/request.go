package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/session"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const maxBodyBytes = 1 << 20

// bindBody decodes the request body into dst and validates its binding tags.
// Clients send some payloads bare and others wrapped as {"data": {...}}; an
// object under "data" is unwrapped.
func bindBody(c *gin.Context, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("failed to read request body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var envelope map[string]json.RawMessage
	if json.Unmarshal(raw, &envelope) == nil {
		if inner, ok := envelope["data"]; ok {
			if trimmed := bytes.TrimSpace(inner); len(trimmed) > 0 && trimmed[0] == '{' {
				raw = trimmed
			}
		}
	}

	if err := binding.JSON.BindBody(raw, dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return apperr.Validation("Invalid request body")
		}
		return apperr.Validation("%v", err)
	}
	return nil
}

// flexJSON decodes a JSON value that may also arrive JSON-encoded inside a string
func flexJSON(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		if inner == "" {
			return nil
		}
		raw = []byte(inner)
	}
	return json.Unmarshal(raw, dst)
}

// flexID reads an id sent either as a number or as a numeric string
type flexID uint

func (f *flexID) UnmarshalJSON(b []byte) error {
	var n uint64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("id must be a number")
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return errors.New("id must be a number")
	}
	*f = flexID(n)
	return nil
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func currentSession(c *gin.Context) *session.Session {
	sess, _ := session.FromContext(c.Request.Context())
	return sess
}

// actor returns the caller; routes without a session get a role-less actor
// that every capability check rejects
func actor(c *gin.Context) access.Actor {
	if sess := currentSession(c); sess != nil {
		return sess.Actor
	}
	return access.Actor{}
}

// flexInt reads an integer sent either as a number or as a numeric string
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("value must be a number")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("value must be a number")
	}
	*f = flexInt(n)
	return nil
}
