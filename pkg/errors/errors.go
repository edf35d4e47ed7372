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
	"fmt"
	"strings"
)

var (
	ErrUnsupportedOS        = errors.New("requested capture mode is not supported on this platform")
	ErrInvalidState         = errors.New("invalid session state")
	ErrInvalidFinalizeState = errors.New("no samples were appended before finalize")
	ErrPipelineFrozen       = errors.New("pipeline frozen")

	errPermissionDenied    = errors.New("permission denied")
	errDeviceNotFound      = errors.New("device not found")
	errBackendStartFailure = errors.New("backend start failed")
)

func New(err string) error {
	return errors.New(err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func ErrPermissionDenied(resource string) error {
	return fmt.Errorf("%w: %s", errPermissionDenied, resource)
}

// ErrPermissionDeniedCause keeps the permission taxonomy while preserving
// the underlying failure for the terminal notification.
func ErrPermissionDeniedCause(resource string, cause error) error {
	return fmt.Errorf("%w: %s: %w", errPermissionDenied, resource, cause)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, errPermissionDenied)
}

func ErrDeviceNotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", errDeviceNotFound, kind, id)
}

func ErrDeviceNotFoundCause(kind, id string, cause error) error {
	return fmt.Errorf("%w: %s %q: %w", errDeviceNotFound, kind, id, cause)
}

func IsDeviceNotFound(err error) bool {
	return errors.Is(err, errDeviceNotFound)
}

func ErrBackendStartFailure(cause error) error {
	return fmt.Errorf("%w: %w", errBackendStartFailure, cause)
}

func IsBackendStartFailure(err error) bool {
	return errors.Is(err, errBackendStartFailure)
}

func ErrGstPipelineError(cause error) error {
	return fmt.Errorf("gstreamer pipeline error: %w", cause)
}

func ErrCouldNotParseConfig(err error) error {
	return fmt.Errorf("could not parse config: %v", err)
}

func ErrInvalidInput(field string) error {
	return fmt.Errorf("request has missing or invalid field: %s", field)
}

func ErrPadLinkFailed(src, sink, status string) error {
	return fmt.Errorf("failed to link %s to %s: %s", src, sink, status)
}

type ErrArray struct {
	errs []error
}

func (e *ErrArray) Check(err error) {
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

func (e *ErrArray) AppendErr(err error) {
	e.errs = append(e.errs, err)
}

func (e *ErrArray) ToError() error {
	if len(e.errs) == 0 {
		return nil
	}

	msg := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msg = append(msg, err.Error())
	}
	return errors.New(strings.Join(msg, "\n"))
}
