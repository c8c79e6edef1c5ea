// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coap

import (
	"errors"
	"strconv"
	"strings"
)

// Dispatch classifies req, routes it to the registry, and builds the
// response envelope (spec.md §4.4, §4.5). ok is false when no response
// should be sent at all: req.Type is Acknowledgement or Reset, which
// never get a reply (spec.md §8: "No response is emitted for a request
// whose type is Ack or Reset").
func Dispatch(reg *Registry, req Message) (resp Message, ok bool) {
	switch req.Type {
	case Confirmable:
		resp.Type = Acknowledgement
	case NonConfirmable:
		resp.Type = NonConfirmable
	default:
		return Message{}, false
	}
	resp.Kind = KindResponse
	resp.MessageID = req.MessageID
	resp.Token = req.Token

	code, payload := route(reg, req)
	body, err := encodeBody(payload)
	if err != nil {
		code, payload, body = InternalServerError, textPayload("Internal Server Error"), []byte("Internal Server Error")
	}
	resp.Code = code
	if len(body) > 0 {
		resp.Payload = body
		resp.Options = append(resp.Options, Option{Number: OptContentFormat, Value: uint32(payload.ContentFormat)})
	}
	return resp, true
}

// encodeBody renders payload's Data onto the wire per its ContentFormat
// (spec.md §4.2). A payload with no Data at all encodes to nothing;
// an unsupported content format (application/exi, or anything outside
// the spec.md §6 table) surfaces ErrContentFormat, which Dispatch maps
// to 5.00 Internal Server Error (spec.md §7).
func encodeBody(p Payload) ([]byte, error) {
	if payloadEmpty(p.Data) {
		return nil, nil
	}
	return encodePayload(p.ContentFormat, p.Data)
}

// route implements spec.md §4.4 steps 1-6, returning the response code
// and payload to attach.
func route(reg *Registry, req Message) (Code, Payload) {
	// spec.md §3: this core accepts any header-permitted token length
	// (0-15) on deserialize but rejects anything over the RFC 7252
	// ceiling of 8 bytes at dispatch.
	if len(req.Token) > MaxTokenLength {
		return BadRequest, textPayload("Bad Request")
	}

	path := joinURIPath(req.Options)
	if path == "" {
		return BadRequest, textPayload("Bad Request")
	}

	resource, found := reg.Get(path)
	if !found {
		return NotFound, textPayload("Not Found")
	}

	params := Params{Query: parseURIQuery(req.Options), Body: req.Payload}
	if cf, ok := optionUint(req.Options, OptContentFormat); ok {
		params.ContentFormat = ContentFormat(cf)
		params.HasContentFormat = true
	}

	switch req.Code.Method() {
	case GET:
		return invoke(resource.Get, params, Content)
	case PUT:
		return invoke(resource.Put, params, Created)
	case POST, DELETE:
		return NotImplemented, textPayload("Not Implemented")
	default:
		return BadRequest, textPayload("Bad Request")
	}
}

// invoke calls handler, mapping its outcome to a response code per
// spec.md §4.4 step 6. A nil handler means the resource never defined
// this method: per spec.md §9.6's redesign flag, this returns 4.05
// Method Not Allowed rather than the original's success-code-with-error-body
// quirk (see DESIGN.md Open Question decisions).
func invoke(handler Handler, params Params, successCode Code) (Code, Payload) {
	if handler == nil {
		return MethodNotAllowed, textPayload("Method Not Allowed")
	}
	payload, err := handler(params)
	switch {
	case err == nil:
		return successCode, payload
	case errors.Is(err, ErrResourceNotFound):
		return NotFound, textPayload("Not Found")
	default:
		return InternalServerError, textPayload("Internal Server Error")
	}
}

func textPayload(s string) Payload {
	return Payload{Data: s, ContentFormat: TextPlain}
}

// joinURIPath collects the Uri-Path options in wire order and joins
// them with "/" (spec.md §4.4 step 1).
func joinURIPath(opts []Option) string {
	var segments []string
	for _, o := range opts {
		if o.Number == URIPath {
			if s, ok := o.Value.(string); ok {
				segments = append(segments, s)
			}
		}
	}
	return strings.Join(segments, "/")
}

// parseURIQuery splits each Uri-Query option at its first "=" into a
// name/value pair, last write wins (spec.md §4.4 step 2).
func parseURIQuery(opts []Option) map[string]string {
	query := make(map[string]string)
	for _, o := range opts {
		if o.Number != URIQuery {
			continue
		}
		s, ok := o.Value.(string)
		if !ok {
			continue
		}
		name, value, found := strings.Cut(s, "=")
		if !found {
			query[name] = ""
			continue
		}
		query[name] = value
	}
	return query
}

func optionUint(opts []Option, number OptionID) (uint32, bool) {
	for _, o := range opts {
		if o.Number == number {
			if v, ok := o.Value.(uint32); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// URL reconstructs a coap:// URL for req, for diagnostics/logging only
// (original_source/coap.py's CoapRequest.url(); SPEC_FULL.md's
// supplemented-features list).
func (m Message) URL() string {
	host := "localhost"
	port := "5683"
	for _, o := range m.Options {
		switch o.Number {
		case URIHost:
			if s, ok := o.Value.(string); ok {
				host = s
			}
		case URIPort:
			if v, ok := o.Value.(uint32); ok {
				port = strconv.Itoa(int(v))
			}
		}
	}
	path := joinURIPath(m.Options)
	url := "coap://" + host + ":" + port + "/" + path

	var queries []string
	for _, o := range m.Options {
		if o.Number == URIQuery {
			if s, ok := o.Value.(string); ok {
				queries = append(queries, s)
			}
		}
	}
	if len(queries) > 0 {
		url += "?" + strings.Join(queries, "&")
	}
	return url
}
