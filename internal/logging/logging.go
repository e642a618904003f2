// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging configures the process wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Conf holds the log configuration.
type Conf struct {
	// Level is one of debug, info, warning, or error.  Anything else
	// selects info.
	Level string

	// Format is text, json, or discard.
	Format string
}

// Initialize applies conf to the standard logger.
func Initialize(conf *Conf) {
	Apply(logrus.StandardLogger(), conf)
}

// Apply applies conf to l.
func Apply(l *logrus.Logger, conf *Conf) {
	switch conf.Level {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warning":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	switch conf.Format {
	case "discard":
		l.SetOutput(io.Discard)
	case "json":
		l.SetOutput(os.Stderr)
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetOutput(os.Stderr)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
