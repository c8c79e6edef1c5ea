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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistryHasWellKnownCore(t *testing.T) {
	reg := NewRegistry()
	require.True(t, reg.Exists(WellKnownCorePath))
}

func TestRegistryAddRejectsEmptyPath(t *testing.T) {
	reg := NewRegistry()
	r := NewResource("")
	r.Get = func(Params) (Payload, error) { return Payload{}, nil }
	err := reg.Add(r)
	require.ErrorIs(t, err, ErrEmptyResourcePath)
}

func TestRegistryAddRejectsNoHandlers(t *testing.T) {
	reg := NewRegistry()
	err := reg.Add(NewResource("foo"))
	require.ErrorIs(t, err, ErrNilHandlerSet)
}

func TestRegistryAddRejectsDuplicatePath(t *testing.T) {
	reg := NewRegistry()
	mk := func() *Resource {
		r := NewResource("foo")
		r.Get = func(Params) (Payload, error) { return Payload{}, nil }
		return r
	}
	require.NoError(t, reg.Add(mk()))
	err := reg.Add(mk())
	require.ErrorIs(t, err, ErrDuplicatePath)
}

func TestRegistryAddAccumulatesMultipleErrors(t *testing.T) {
	reg := NewRegistry()
	err := reg.Add(NewResource(""))
	require.ErrorIs(t, err, ErrEmptyResourcePath)
	require.ErrorIs(t, err, ErrNilHandlerSet)
}

func TestRegistryRemoveUnknownPath(t *testing.T) {
	reg := NewRegistry()
	err := reg.Remove("nope")
	require.ErrorIs(t, err, ErrResourceNotFound)
}

func TestRegistryRemoveCascadesToChildren(t *testing.T) {
	reg := NewRegistry()
	parent := NewResource("parent")
	parent.Get = func(Params) (Payload, error) { return Payload{}, nil }
	require.NoError(t, reg.Add(parent))

	child := NewResource("child")
	child.Get = func(Params) (Payload, error) { return Payload{}, nil }
	require.NoError(t, parent.AddChild(child))
	require.True(t, reg.Exists("parent/child"))

	require.NoError(t, reg.Remove("parent"))
	require.False(t, reg.Exists("parent/child"))
}

func TestRenderCoreLinkFormat(t *testing.T) {
	reg := NewRegistry()
	r := NewResource("sensors/temp")
	r.Get = func(Params) (Payload, error) { return Payload{}, nil }
	r.Attributes = Attributes{RT: "temperature", IF: "sensor", CT: "0"}
	require.NoError(t, reg.Add(r))

	rendered := reg.RenderCoreLinkFormat()
	require.Equal(t, `<sensors/temp>;rt="temperature";if="sensor";ct=0`, rendered)
}

func TestRenderCoreLinkFormatExcludesItself(t *testing.T) {
	reg := NewRegistry()
	rendered := reg.RenderCoreLinkFormat()
	require.NotContains(t, rendered, WellKnownCorePath)
}

func TestResourceRemoveChild(t *testing.T) {
	reg := NewRegistry()
	parent := NewResource("parent")
	parent.Get = func(Params) (Payload, error) { return Payload{}, nil }
	require.NoError(t, reg.Add(parent))

	child := NewResource("child")
	child.Get = func(Params) (Payload, error) { return Payload{}, nil }
	require.NoError(t, parent.AddChild(child))

	require.NoError(t, parent.RemoveChild(child))
	require.False(t, reg.Exists("parent/child"))
	require.Empty(t, parent.Children())
}
