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

// Params carries the Uri-Query key/value pairs and, when present, the
// numeric Content-Format of the request body, passed to a Handler
// (spec.md §4.4 steps 2-3).
type Params struct {
	Query            map[string]string
	ContentFormat    ContentFormat
	HasContentFormat bool
	Body             []byte
}

// Payload is what a Handler returns on success (spec.md §3). Data is
// the value to encode onto the wire; its accepted shapes depend on
// ContentFormat (spec.md §4.2 "Content-format dispatch on serialize"):
// []byte or string for text/link-format/xml/octet-stream, any
// JSON-marshalable value for application/json.
type Payload struct {
	Data          interface{}
	ContentFormat ContentFormat
}

// Handler is the narrow capability a resource exposes per method.
// Returning ErrResourceNotFound maps to a 4.04 response; any other
// error maps to 5.00 (spec.md §4.4 step 6).
type Handler func(Params) (Payload, error)

// Attributes are the CoRE Link Format attributes rendered by discovery
// (spec.md §3, RFC 6690 §2.1).
type Attributes struct {
	Title string
	RT    string
	IF    string
	CT    string
}

// Resource is one entry in the registry (spec.md §3).
type Resource struct {
	Path       string
	Attributes Attributes
	Get        Handler
	Put        Handler

	children []*Resource
	registry *Registry
}

// NewResource constructs a bare resource at path with no handlers set.
func NewResource(path string) *Resource {
	return &Resource{Path: path}
}

// AddChild rewrites child's path to parent_path + "/" + child_path and
// registers it with the same registry this resource belongs to
// (spec.md §3's children note; original_source/coap.py's
// CoapResource.addChild).
func (r *Resource) AddChild(child *Resource) error {
	child.Path = r.Path + "/" + child.Path
	r.children = append(r.children, child)
	if r.registry != nil {
		return r.registry.Add(child)
	}
	return nil
}

// RemoveChild unregisters child from this resource's registry and
// drops it from the children list (original_source/coap.py's
// CoapResource.removeChild).
func (r *Resource) RemoveChild(child *Resource) error {
	for i, c := range r.children {
		if c == child {
			r.children = append(r.children[:i], r.children[i+1:]...)
			if r.registry != nil {
				return r.registry.Remove(child.Path)
			}
			return nil
		}
	}
	return ErrResourceNotFound
}

// RemoveChildren unregisters every child resource (original_source/coap.py's
// CoapResource.removeChildren).
func (r *Resource) RemoveChildren() error {
	var errs error
	for _, c := range r.children {
		if r.registry != nil {
			if err := r.registry.Remove(c.Path); err != nil {
				errs = appendErr(errs, err)
			}
		}
	}
	r.children = nil
	return errs
}

// Children returns the resources registered under this one via AddChild.
func (r *Resource) Children() []*Resource {
	return append([]*Resource(nil), r.children...)
}
