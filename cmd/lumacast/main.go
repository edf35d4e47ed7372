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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/device"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/logger"
	"github.com/lumacast/lumacast/pkg/session"
	"github.com/lumacast/lumacast/pkg/stats"
	"github.com/lumacast/lumacast/pkg/tracer"
	"github.com/lumacast/lumacast/version"
)

func main() {
	cmd := &cli.Command{
		Name:        "lumacast",
		Usage:       "Lumacast screen recorder",
		Version:     version.Version,
		Description: "records a display to an mp4 or mkv file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Lumacast yaml config file",
				Sources: cli.EnvVars("LUMACAST_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "config-body",
				Usage:   "Lumacast yaml config body",
				Sources: cli.EnvVars("LUMACAST_CONFIG_BODY"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:        "record",
				Description: "starts a recording session, stopped by SIGINT or --max-duration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Usage:    "output file path, extension selects the container",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "display",
						Usage: "display id to record",
						Value: config.DisplayPrimary,
					},
					&cli.StringFlag{
						Name:  "microphone",
						Usage: "microphone id, or \"default\"; empty disables microphone capture",
					},
					&cli.BoolFlag{
						Name:  "system-audio",
						Usage: "capture system audio output",
					},
					&cli.BoolFlag{
						Name:  "show-cursor",
						Usage: "include the cursor in the recording",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "framerate",
						Usage: "frames per second",
					},
					&cli.IntFlag{
						Name:  "video-bitrate",
						Usage: "video bitrate in bits per second",
					},
					&cli.IntFlag{
						Name:  "audio-bitrate",
						Usage: "audio bitrate in bits per second",
					},
					&cli.IntFlag{
						Name:  "crop-x",
						Usage: "crop rectangle origin x",
					},
					&cli.IntFlag{
						Name:  "crop-y",
						Usage: "crop rectangle origin y",
					},
					&cli.IntFlag{
						Name:  "crop-width",
						Usage: "crop rectangle width, 0 for full frame",
					},
					&cli.IntFlag{
						Name:  "crop-height",
						Usage: "crop rectangle height, 0 for full frame",
					},
					&cli.DurationFlag{
						Name:  "max-duration",
						Usage: "stop automatically after this long",
					},
				},
				Action: runRecord,
			},
			{
				Name:        "devices",
				Description: "lists capturable displays and microphones",
				Action:      runDevices,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Command) (*config.ServiceConfig, error) {
	configBody := c.String("config-body")
	if configBody == "" {
		if configFile := c.String("config"); configFile != "" {
			content, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			configBody = string(content)
		}
	}

	conf, err := config.NewServiceConfig(configBody)
	if err != nil {
		return nil, err
	}
	if err = conf.InitLogger("service", "lumacast"); err != nil {
		return nil, err
	}
	return conf, nil
}

func runRecord(ctx context.Context, c *cli.Command) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	gst.Init()

	if conf.Tracing {
		tp := tracer.InitOTel("lumacast")
		defer func() {
			_ = tp.Shutdown(context.Background())
		}()
	}

	monitor := stats.Default()
	if conf.MetricsPort != 0 {
		go func() {
			if err := stats.ListenAndServe(conf.MetricsPort); err != nil {
				logger.Warnw("metrics server failed", err)
			}
		}()
	}

	results := make(chan *session.Result, 1)
	controller := session.NewController(conf, monitor, func(res *session.Result) {
		results <- res
	})

	opts := &config.RecordingOptions{
		OutputPath:   c.String("output"),
		VideoBitrate: int(c.Int("video-bitrate")),
		AudioBitrate: int(c.Int("audio-bitrate")),
		Framerate:    int(c.Int("framerate")),
		ShowCursor:   c.Bool("show-cursor"),
		Display:      c.String("display"),
		Microphone:   c.String("microphone"),
		SystemAudio:  c.Bool("system-audio"),
		MaxDuration:  c.Duration("max-duration"),
		Crop: config.Rect{
			X:      int(c.Int("crop-x")),
			Y:      int(c.Int("crop-y")),
			Width:  int(c.Int("crop-width")),
			Height: int(c.Int("crop-height")),
		},
	}

	sessionID, err := controller.StartRecording(ctx, opts)
	if err != nil {
		return err
	}
	logger.Infow("recording, interrupt to stop", "sessionID", sessionID)

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	killed := false
	for {
		select {
		case sig := <-stopChan:
			if killed {
				logger.Infow("second interrupt, discarding recording", "signal", sig)
				controller.Close()
				return errors.New("recording cancelled")
			}
			killed = true
			logger.Infow("finishing recording", "signal", sig)
			controller.StopRecording()

		case res := <-results:
			if res.Error != nil {
				return res.Error
			}
			fmt.Println(res.OutputPath)
			logger.Infow("recording saved",
				"outputPath", res.OutputPath,
				"duration", res.Duration.Round(time.Millisecond),
				"videoDropped", res.VideoDropped,
				"audioDropped", res.AudioDropped,
				"limitReached", res.LimitReached,
			)
			return nil
		}
	}
}

func runDevices(_ context.Context, c *cli.Command) error {
	if _, err := loadConfig(c); err != nil {
		return err
	}

	gst.Init()

	displays, err := device.ListDisplays()
	if err != nil {
		logger.Warnw("display enumeration failed", err)
	}
	fmt.Println("displays:")
	for _, d := range displays {
		primary := ""
		if d.Primary {
			primary = " (primary)"
		}
		fmt.Printf("  %s  %dx%d+%d+%d%s\n", d.ID, d.Width, d.Height, d.X, d.Y, primary)
	}

	mics, err := device.ListMicrophones()
	if err != nil {
		logger.Warnw("microphone enumeration failed", err)
	}
	fmt.Println("microphones:")
	for _, m := range mics {
		fmt.Printf("  %s  %s\n", m.ID, m.Name)
	}
	return nil
}
