package ckan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ActionError is the error object of an unsuccessful action. Validation
// errors carry per-field messages alongside the message. Status is the HTTP
// status of the response, and the error matches the httpresponse error of
// the same status with errors.Is.
type ActionError struct {
	Status  int
	Type    string
	Message string
	Fields  map[string][]string
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e *ActionError) Error() string {
	var b strings.Builder
	if e.Type != "" {
		b.WriteString(e.Type)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString("action failed")
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "; %s: %s", k, strings.Join(e.Fields[k], ", "))
		}
	}
	return b.String()
}

func (e *ActionError) Unwrap() error {
	if e.Status == 0 {
		return nil
	}
	return httpresponse.Err(e.Status)
}

func (e *ActionError) UnmarshalJSON(data []byte) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	for k, v := range body {
		switch k {
		case "__type":
			_ = json.Unmarshal(v, &e.Type)
		case "message":
			_ = json.Unmarshal(v, &e.Message)
		default:
			var messages []string
			if err := json.Unmarshal(v, &messages); err != nil {
				var message string
				if err := json.Unmarshal(v, &message); err != nil {
					continue
				}
				messages = []string{message}
			}
			if e.Fields == nil {
				e.Fields = make(map[string][]string)
			}
			e.Fields[k] = messages
		}
	}
	return nil
}

func (e *ActionError) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		body[k] = v
	}
	if e.Type != "" {
		body["__type"] = e.Type
	}
	if e.Message != "" {
		body["message"] = e.Message
	}
	return json.Marshal(body)
}
