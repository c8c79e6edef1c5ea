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

import "errors"

// Deserialization/serialization errors (spec.md §7).
var (
	ErrTooShort            = errors.New("coap: datagram too short or truncated")
	ErrEmptyWithBody       = errors.New("coap: empty message has more than 4 bytes")
	ErrPayloadMarkerNoBody = errors.New("coap: payload marker present with no payload")
	ErrOptionNumberFifteen = errors.New("coap: option delta or length of 15 is reserved")
	ErrVersion             = errors.New("coap: unsupported protocol version")
	ErrUnknownOption       = errors.New("coap: unknown option number")
	ErrInvalidTokenLength  = errors.New("coap: token length out of range")
	ErrOptionValueLength   = errors.New("coap: option value length out of range")
	ErrOptionNotRepeatable = errors.New("coap: repeated option that must not repeat")

	// Dispatcher and registry errors (spec.md §7).
	ErrResourceNotFound = errors.New("coap: resource not found")
	ErrContentFormat    = errors.New("coap: unsupported content format")

	// Registry validation errors, accumulated with hashicorp/go-multierror
	// when more than one applies at once (see coap/registry.go Add).
	ErrEmptyResourcePath = errors.New("coap: resource path must not be empty")
	ErrNilHandlerSet     = errors.New("coap: resource declares no GET or PUT handler")
	ErrDuplicatePath     = errors.New("coap: resource path already registered")
)
