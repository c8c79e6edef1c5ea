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
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// WellKnownCorePath is always present in a server's registry
// (original_source/coap.py's CoapServer.start unconditionally
// registers WellKnownCore).
const WellKnownCorePath = ".well-known/core"

// appendErr accumulates errs using hashicorp/go-multierror, the same
// library the teacher already depends on (message/message.go's Clone).
func appendErr(errs error, err error) error {
	if err == nil {
		return errs
	}
	return multierror.Append(errs, err)
}

// Registry is the path-keyed, flat resource table (spec.md §4.3). The
// registry exclusively owns each Resource; handlers borrow one for the
// duration of a single dispatch call and do not retain it.
type Registry struct {
	resources map[string]*Resource
}

// NewRegistry builds an empty registry with the well-known/core
// discovery resource already present.
func NewRegistry() *Registry {
	reg := &Registry{resources: make(map[string]*Resource)}
	wellKnown := NewResource(WellKnownCorePath)
	wellKnown.Get = func(Params) (Payload, error) {
		return Payload{
			Data:          reg.RenderCoreLinkFormat(),
			ContentFormat: AppLinkFormat,
		}, nil
	}
	_ = reg.Add(wellKnown)
	return reg
}

// Add validates and registers resource, accumulating every validation
// problem found (a resource can fail more than one check at once) via
// hashicorp/go-multierror rather than stopping at the first.
func (reg *Registry) Add(r *Resource) error {
	var errs error
	if r.Path == "" {
		errs = appendErr(errs, ErrEmptyResourcePath)
	}
	if r.Get == nil && r.Put == nil {
		errs = appendErr(errs, ErrNilHandlerSet)
	}
	if _, exists := reg.resources[r.Path]; exists {
		errs = appendErr(errs, fmt.Errorf("%w: %s", ErrDuplicatePath, r.Path))
	}
	if errs != nil {
		return errs
	}
	r.registry = reg
	reg.resources[r.Path] = r
	return nil
}

// Remove unregisters path and all of its descendants, collecting
// per-descendant failures instead of aborting on the first one.
func (reg *Registry) Remove(path string) error {
	r, ok := reg.resources[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrResourceNotFound, path)
	}
	var errs error
	for _, child := range r.children {
		if err := reg.Remove(child.Path); err != nil {
			errs = appendErr(errs, err)
		}
	}
	delete(reg.resources, path)
	return errs
}

// Get returns the resource registered at path, if any.
func (reg *Registry) Get(path string) (*Resource, bool) {
	r, ok := reg.resources[path]
	return r, ok
}

// Exists reports whether path is registered.
func (reg *Registry) Exists(path string) bool {
	_, ok := reg.resources[path]
	return ok
}

// RenderCoreLinkFormat renders every registered resource (except the
// discovery resource itself) in RFC 6690 §2.1 CoRE Link Format.
func (reg *Registry) RenderCoreLinkFormat() string {
	paths := make([]string, 0, len(reg.resources))
	for path := range reg.resources {
		if path == WellKnownCorePath {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	values := make([]string, 0, len(paths))
	for _, path := range paths {
		values = append(values, linkValue(reg.resources[path]))
	}
	return strings.Join(values, ",")
}

func linkValue(r *Resource) string {
	var params []string
	if r.Attributes.RT != "" {
		params = append(params, fmt.Sprintf(`rt=%q`, r.Attributes.RT))
	}
	if r.Attributes.IF != "" {
		params = append(params, fmt.Sprintf(`if=%q`, r.Attributes.IF))
	}
	if r.Attributes.Title != "" {
		params = append(params, fmt.Sprintf(`title=%q`, r.Attributes.Title))
	}
	if r.Attributes.CT != "" {
		params = append(params, "ct="+r.Attributes.CT)
	}

	link := "<" + r.Path + ">"
	if len(params) > 0 {
		link += ";" + strings.Join(params, ";")
	}
	return link
}
