// Package model defines the request-scoped types passed between relay layers.
package model

import (
	"encoding/json"
	"net/http"
)

// InboundRequest is the decoded client body. Values are kept as raw JSON so
// every forwarded field leaves exactly as it arrived, nested structure included.
type InboundRequest map[string]json.RawMessage

// ForwardPayload is the part of an InboundRequest sent upstream.
type ForwardPayload map[string]json.RawMessage

// Split separates field from the request. It returns the field's string value
// and a copy of every other field. The receiver is left untouched.
//
// A missing or non-string field yields an empty credential; the field is
// removed from the payload either way.
func (r InboundRequest) Split(field string) (string, ForwardPayload) {
	payload := make(ForwardPayload, len(r))
	for k, v := range r {
		if k == field {
			continue
		}
		payload[k] = v
	}

	var credential string
	if raw, ok := r[field]; ok {
		if err := json.Unmarshal(raw, &credential); err != nil {
			credential = ""
		}
	}
	return credential, payload
}

// UpstreamResponse is a fully buffered upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorBody is the body written when there is no upstream error body to relay.
type ErrorBody struct {
	Message string `json:"message"`
}
