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

package gst

import (
	"sync"

	"github.com/go-gst/go-glib/glib"
	"github.com/go-gst/go-gst/gst"

	"github.com/lumacast/lumacast/pkg/errors"
)

var initOnce sync.Once

// Init initializes the gstreamer runtime and starts the glib main loop that
// dispatches bus watches. Safe to call from every pipeline constructor.
func Init() {
	initOnce.Do(func() {
		gst.Init(nil)
		loop := glib.NewMainLoop(glib.MainContextDefault(), false)
		go loop.Run()
	})
}

// BuildElement creates an element and applies its properties.
func BuildElement(factory string, props map[string]interface{}) (*gst.Element, error) {
	e, err := gst.NewElement(factory)
	if err != nil {
		return nil, errors.ErrGstPipelineError(err)
	}
	for name, value := range props {
		if err = e.SetProperty(name, value); err != nil {
			return nil, errors.ErrGstPipelineError(err)
		}
	}
	return e, nil
}
