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
	"time"

	"github.com/frostbyte73/core"
	"github.com/go-gst/go-gst/gst"

	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/logger"
)

var ErrStartTimeout = errors.New("timed out waiting for pipeline to reach playing")

// Pipeline wraps a gst pipeline with bus message handling and exactly-once
// lifecycle transitions. Bus messages are dispatched on the shared glib main
// loop started by Init.
type Pipeline struct {
	Callbacks *Callbacks

	name     string
	pipeline *gst.Pipeline

	playing     core.Fuse
	eosReceived core.Fuse
	errored     core.Fuse
	stopped     core.Fuse
	err         error
}

func NewPipeline(name string, callbacks *Callbacks) (*Pipeline, error) {
	Init()

	pipeline, err := gst.NewPipeline(name)
	if err != nil {
		return nil, errors.ErrGstPipelineError(err)
	}

	p := &Pipeline{
		Callbacks: callbacks,
		name:      name,
		pipeline:  pipeline,
	}
	pipeline.GetPipelineBus().AddWatch(p.messageWatch)

	return p, nil
}

// AddLinked adds the elements to the pipeline and links them in order.
func (p *Pipeline) AddLinked(elements ...*gst.Element) error {
	if err := p.pipeline.AddMany(elements...); err != nil {
		return errors.ErrGstPipelineError(err)
	}
	if err := gst.ElementLinkMany(elements...); err != nil {
		return errors.ErrGstPipelineError(err)
	}
	return nil
}

// Add adds elements without linking, for chains joined via request pads.
func (p *Pipeline) Add(elements ...*gst.Element) error {
	if err := p.pipeline.AddMany(elements...); err != nil {
		return errors.ErrGstPipelineError(err)
	}
	return nil
}

func (p *Pipeline) Start() error {
	if err := p.pipeline.SetState(gst.StatePlaying); err != nil {
		return errors.ErrGstPipelineError(err)
	}
	return nil
}

// AwaitPlaying blocks until the pipeline reaches playing, fails, or the
// bound elapses. On timeout the state change is still in progress in the
// background; a later failure is reported through Callbacks.OnError.
func (p *Pipeline) AwaitPlaying(bound time.Duration) error {
	select {
	case <-p.playing.Watch():
		return nil
	case <-p.errored.Watch():
		return p.err
	case <-time.After(bound):
		return ErrStartTimeout
	}
}

func (p *Pipeline) Playing() bool {
	return p.playing.IsBroken()
}

// AwaitEOS blocks until EOS has made it through the pipeline or the bound
// elapses.
func (p *Pipeline) AwaitEOS(bound time.Duration) bool {
	select {
	case <-p.eosReceived.Watch():
		return true
	case <-p.errored.Watch():
		return false
	case <-time.After(bound):
		return false
	}
}

func (p *Pipeline) Stop() error {
	var err error
	p.stopped.Once(func() {
		logger.Debugw("setting state to null", "pipeline", p.name)
		if serr := p.pipeline.SetState(gst.StateNull); serr != nil {
			err = errors.ErrGstPipelineError(serr)
		}
	})
	return err
}

func (p *Pipeline) messageWatch(msg *gst.Message) bool {
	switch msg.Type() {
	case gst.MessageEOS:
		logger.Debugw("eos received", "pipeline", p.name)
		p.eosReceived.Break()

	case gst.MessageError:
		gErr := msg.ParseError()
		logger.Errorw("pipeline failure", gErr, "pipeline", p.name, "element", msg.Source())
		p.errored.Once(func() {
			p.err = errors.ErrGstPipelineError(gErr)
		})
		p.Callbacks.OnError(p.err)

	case gst.MessageStateChanged:
		if p.playing.IsBroken() || msg.Source() != p.name {
			break
		}
		_, newState := msg.ParseStateChanged()
		if newState == gst.StatePlaying {
			logger.Debugw("pipeline playing", "pipeline", p.name)
			p.playing.Break()
		}

	default:
		// ignore
	}

	return true
}
