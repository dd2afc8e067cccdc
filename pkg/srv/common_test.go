/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package srv

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewService(t *testing.T) {
	cfg := testConfig(t)
	cfg.CaptureFile = filepath.Join(t.TempDir(), "capture.hex")
	s, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Forwarder != nil {
		t.Error("forwarder created with console disabled")
	}
	if s.Capture == nil {
		t.Error("no capture writer")
	}
	if s.State.Battery != s.Parser.Battery || s.Api.Battery != s.Parser.Battery {
		t.Error("battery cache not shared")
	}
	if s.Collector.Parser != s.Parser {
		t.Error("parser not shared")
	}
}

func TestServiceStops(t *testing.T) {
	cfg := testConfig(t)
	cfg.CollectorConfig.Address = "127.0.0.1"
	cfg.CollectorConfig.Port = 0
	cfg.Api.Address = "127.0.0.1"
	cfg.Api.Port = 0
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewService(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	cancel()
	if err = s.Run(); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
