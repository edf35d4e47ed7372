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

package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/logger"
)

type ServiceConfig struct {
	Logging     *logger.Config `yaml:"logging"`      // logging config
	MetricsPort int            `yaml:"metrics_port"` // prometheus listener port, 0 to disable
	Tracing     bool           `yaml:"tracing"`      // enable opentelemetry spans
	Defaults    Defaults       `yaml:"defaults"`     // defaults applied to recording options
	SessionLimits
}

type SessionLimits struct {
	MaxDuration time.Duration `yaml:"max_duration"` // force-stop sessions after this duration, 0 to disable
}

type Defaults struct {
	Framerate    int `yaml:"framerate"`
	VideoBitrate int `yaml:"video_bitrate"` // bits per second
	AudioBitrate int `yaml:"audio_bitrate"` // bits per second
}

func NewServiceConfig(confString string) (*ServiceConfig, error) {
	conf := &ServiceConfig{
		Logging: &logger.Config{Level: "info"},
		Defaults: Defaults{
			Framerate:    30,
			VideoBitrate: 4_500_000,
			AudioBitrate: 128_000,
		},
	}

	if confString != "" {
		if err := yaml.Unmarshal([]byte(confString), conf); err != nil {
			return nil, errors.ErrCouldNotParseConfig(err)
		}
	}

	if err := conf.InitLogger(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *ServiceConfig) InitLogger(values ...interface{}) error {
	// if GST_DEBUG is not set, derive it from the logging level
	if _, exists := os.LookupEnv("GST_DEBUG"); !exists {
		var gstDebug []string
		switch c.Logging.Level {
		case "debug":
			gstDebug = []string{"3"}
		case "info", "warn":
			gstDebug = []string{"2"}
		case "error":
			gstDebug = []string{"1"}
		}
		if err := os.Setenv("GST_DEBUG", strings.Join(gstDebug, ",")); err != nil {
			return err
		}
	}

	return logger.Init(c.Logging, values...)
}

// ApplyDefaults fills unset option fields from the service defaults.
func (c *ServiceConfig) ApplyDefaults(opts *RecordingOptions) {
	if opts.Framerate == 0 {
		opts.Framerate = c.Defaults.Framerate
	}
	if opts.VideoBitrate == 0 {
		opts.VideoBitrate = c.Defaults.VideoBitrate
	}
	if opts.AudioBitrate == 0 {
		opts.AudioBitrate = c.Defaults.AudioBitrate
	}
	if opts.MaxDuration == 0 {
		opts.MaxDuration = c.MaxDuration
	}
}
