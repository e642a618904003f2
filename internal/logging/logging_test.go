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

package logging

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestApply(t *testing.T) {
	cases := []struct {
		conf      Conf
		level     logrus.Level
		json      bool
		discarded bool
	}{
		{Conf{Level: "debug"}, logrus.DebugLevel, false, false},
		{Conf{Level: "warning", Format: "json"}, logrus.WarnLevel, true, false},
		{Conf{Level: "error", Format: "discard"}, logrus.ErrorLevel, false, true},
		{Conf{Level: "loud"}, logrus.InfoLevel, false, false},
	}
	for _, tc := range cases {
		l := logrus.New()
		Apply(l, &tc.conf)
		if got := l.GetLevel(); got != tc.level {
			t.Errorf("Apply(%+v) level = %v, want %v", tc.conf, got, tc.level)
		}
		if _, got := l.Formatter.(*logrus.JSONFormatter); got != tc.json {
			t.Errorf("Apply(%+v) json formatter = %v, want %v", tc.conf, got, tc.json)
		}
		if got := l.Out == io.Discard; got != tc.discarded {
			t.Errorf("Apply(%+v) discarded = %v, want %v", tc.conf, got, tc.discarded)
		}
	}
}
