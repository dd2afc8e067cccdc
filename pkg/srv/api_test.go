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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/console"
	"github.com/vitalwave/go-collector/pkg/numeric"
	"github.com/vitalwave/go-collector/pkg/store"
)

func newTestApi(t *testing.T) (*ApiServer, *store.State) {
	t.Helper()
	state := newTestState(t)
	s, err := NewApiServer(context.Background(), testConfig(t), state)
	if err != nil {
		t.Fatal(err)
	}
	return s, state
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestApiRoutes(t *testing.T) {
	s, state := newTestApi(t)
	hp := &collector.HardwarePacket{DeviceID: "0A0B0C0D", PacketSn: 3, Hr: 70}
	if err := state.PutPacket(hp, []byte{0x55, 0xAA}); err != nil {
		t.Fatal(err)
	}
	if err := state.PutBp(&collector.BpPacket{DeviceID: "0A0B0C0D", Systolic: 121}); err != nil {
		t.Fatal(err)
	}
	if err := state.PutBattery("0A0B0C0D", collector.BatteryLevels{Thermometer: 55}); err != nil {
		t.Fatal(err)
	}
	h := s.Handler()

	tests := []struct {
		path     string
		code     int
		contains string
	}{
		{"/api/devices", http.StatusOK, `"id":"0A0B0C0D"`},
		{"/api/devices/0A0B0C0D", http.StatusOK, `"packetSn":3`},
		{"/api/devices/0A0B0C0D/bp", http.StatusOK, `"systolic":121`},
		{"/api/devices/0A0B0C0D/battery", http.StatusOK, `"thermometer":55`},
		{"/api/devices/FFFFFFFF", http.StatusNotFound, "Device not found"},
		{"/api/devices/FFFFFFFF/bp", http.StatusNotFound, "Device not found"},
		{"/swagger.json", http.StatusOK, `"swagger": "2.0"`},
		{"/docs", http.StatusOK, "redoc"},
		{"/metrics", http.StatusOK, "collector_api_requests_total"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			if rec.Code != tt.code {
				t.Fatalf("got %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q: %s", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestApiEmptyDevices(t *testing.T) {
	s, _ := newTestApi(t)
	rec := get(t, s.Handler(), "/api/devices")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestApiLiveBattery(t *testing.T) {
	s, _ := newTestApi(t)
	s.Battery = collector.NewBatteryCache()
	s.Battery.Put("0A0B0C0D", collector.BatteryFlowMeter, 33)
	rec := get(t, s.Handler(), "/api/devices/0A0B0C0D/battery")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"flowMeter":33`) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestApiConsole(t *testing.T) {
	s, state := newTestApi(t)
	hp := &collector.HardwarePacket{DeviceID: "0A0B0C0D", PacketSn: 3, Hr: 70, RawRespList: []int{9}}
	if err := state.PutPacket(hp, nil); err != nil {
		t.Fatal(err)
	}
	rec := get(t, s.Handler(), "/api/devices/0A0B0C0D/console")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	var cf ConsoleFrame
	if err := json.Unmarshal(rec.Body.Bytes(), &cf); err != nil {
		t.Fatal(err)
	}
	frame, err := numeric.HexToBytes(cf.Hex)
	if err != nil {
		t.Fatal(err)
	}
	p, err := console.Parse(frame)
	if err != nil {
		t.Fatal(err)
	}
	if p.OrderNum != 7 || p.Hr != 70 || p.RespList[0] != 9 || p.Systolic != 0 {
		t.Errorf("got order %d hr %d resp %d systolic %d", p.OrderNum, p.Hr, p.RespList[0], p.Systolic)
	}
}
