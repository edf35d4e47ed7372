// Copyright 2025 Lumacast Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomy(t *testing.T) {
	err := ErrPermissionDenied("microphone")
	assert.True(t, IsPermissionDenied(err))
	assert.False(t, IsDeviceNotFound(err))
	assert.Contains(t, err.Error(), "microphone")

	err = ErrDeviceNotFound("display", "7")
	assert.True(t, IsDeviceNotFound(err))
	assert.Contains(t, err.Error(), `"7"`)

	cause := errors.New("pipewire connect refused")
	err = ErrBackendStartFailure(cause)
	assert.True(t, IsBackendStartFailure(err))
	assert.True(t, errors.Is(err, cause))
}

func TestTaxonomyPreservesCauses(t *testing.T) {
	cause := errors.New("pulse: access denied")

	err := ErrPermissionDeniedCause("microphone", cause)
	assert.True(t, IsPermissionDenied(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "access denied")

	err = ErrDeviceNotFoundCause("microphone", "usb-mic-1", cause)
	assert.True(t, IsDeviceNotFound(err))
	assert.False(t, IsPermissionDenied(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), `"usb-mic-1"`)
}

func TestErrArray(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	errArray := &ErrArray{}
	assert.Nil(t, errArray.ToError())

	errArray.Check(nil)
	assert.Nil(t, errArray.ToError())

	errArray.AppendErr(err1)
	assert.Equal(t, err1.Error(), errArray.ToError().Error())

	errArray.Check(err2)
	assert.Equal(t, 2, len(strings.Split(errArray.ToError().Error(), "\n")))
}
