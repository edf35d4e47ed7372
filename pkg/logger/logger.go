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

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, or error
	JSON       bool   `yaml:"json"`        // json encoding instead of console
	File       string `yaml:"file"`        // log to file instead of stdout
	MaxSize    int    `yaml:"max_size"`    // max file size in MB before rotation
	MaxAge     int    `yaml:"max_age"`     // max age in days before deletion
	MaxBackups int    `yaml:"max_backups"` // max rotated files to keep
}

type Logger struct {
	zl *zap.SugaredLogger
}

var defaultLogger = &Logger{zl: zap.NewNop().Sugar()}

// Init replaces the default nop logger. Values are attached to every entry.
func Init(conf *Config, values ...interface{}) error {
	if conf == nil {
		conf = &Config{Level: "info"}
	}

	level, err := zapcore.ParseLevel(conf.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConf := zap.NewProductionEncoderConfig()
	encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if conf.JSON {
		encoder = zapcore.NewJSONEncoder(encoderConf)
	} else {
		encoderConf.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConf)
	}

	var ws zapcore.WriteSyncer
	if conf.File != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    conf.MaxSize,
			MaxAge:     conf.MaxAge,
			MaxBackups: conf.MaxBackups,
		})
	} else {
		ws = zapcore.Lock(os.Stdout)
	}

	zl := zap.New(zapcore.NewCore(encoder, ws, level)).Sugar()
	defaultLogger = &Logger{zl: zl.With(values...)}
	return nil
}

func GetLogger() *Logger {
	return defaultLogger
}

func (l *Logger) WithValues(values ...interface{}) *Logger {
	return &Logger{zl: l.zl.With(values...)}
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.zl.Debugw(msg, keysAndValues...)
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.zl.Infow(msg, keysAndValues...)
}

func (l *Logger) Warnw(msg string, err error, keysAndValues ...interface{}) {
	if err != nil {
		keysAndValues = append(keysAndValues, "error", err)
	}
	l.zl.Warnw(msg, keysAndValues...)
}

func (l *Logger) Errorw(msg string, err error, keysAndValues ...interface{}) {
	if err != nil {
		keysAndValues = append(keysAndValues, "error", err)
	}
	l.zl.Errorw(msg, keysAndValues...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	defaultLogger.Debugw(msg, keysAndValues...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	defaultLogger.Infow(msg, keysAndValues...)
}

func Warnw(msg string, err error, keysAndValues ...interface{}) {
	defaultLogger.Warnw(msg, err, keysAndValues...)
}

func Errorw(msg string, err error, keysAndValues ...interface{}) {
	defaultLogger.Errorw(msg, err, keysAndValues...)
}
