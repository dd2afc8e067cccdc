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

package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/layers"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s
}

func TestPacketRoundTrip(t *testing.T) {
	s := newTestState(t)
	s.Battery = collector.NewBatteryCache()
	s.Battery.Put("0A0B0C0D", collector.BatteryOximeter, 64)

	hp := &collector.HardwarePacket{
		DeviceID:    "0A0B0C0D",
		DeviceCode:  0x0A0B0C0D,
		PacketSn:    42,
		Time:        1700000000,
		EcgList:     []int{1, 2, 3},
		Temperature: 366,
		FlowMeter:   &collector.FlowMeterBlock{Breath: []int{1, 0}},
	}
	frame := []byte{0x55, 0xAA, 0x01}
	meta := layers.FindPacketType(uint8(layers.PacketTypeRealtime))
	s.OnNotify(hp.DeviceID, frame, meta, hp)

	got, err := s.Packet("0A0B0C0D")
	if err != nil {
		t.Fatal(err)
	}
	if got.PacketSn != 42 || got.DeviceCode != 0x0A0B0C0D || got.Time != 1700000000 || got.Temperature != 366 {
		t.Errorf("got %+v", got)
	}
	if len(got.EcgList) != 3 || got.EcgList[2] != 3 {
		t.Errorf("ecg %v", got.EcgList)
	}
	if got.FlowMeter == nil || len(got.FlowMeter.Breath) != 2 {
		t.Errorf("flow meter %+v", got.FlowMeter)
	}

	raw, err := s.Frame("0A0B0C0D")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, frame) {
		t.Errorf("frame % X", raw)
	}

	levels, err := s.BatteryLevels("0A0B0C0D")
	if err != nil {
		t.Fatal(err)
	}
	if levels.Oximeter != 64 {
		t.Errorf("battery %+v", levels)
	}
}

func TestBpRoundTrip(t *testing.T) {
	s := newTestState(t)
	bp := &collector.BpPacket{DeviceID: "0A0B0C0D", Time: 1700000000123, Systolic: 120, Diastolic: 80, Date: "2023-11-14 22:13:20"}
	s.OnNotify(bp.DeviceID, nil, layers.FindPacketType(uint8(layers.PacketTypeBpData)), bp)
	got, err := s.Bp("0A0B0C0D")
	if err != nil {
		t.Fatal(err)
	}
	if *got != *bp {
		t.Errorf("got %+v, want %+v", got, bp)
	}
	if _, err = s.Packet("0A0B0C0D"); !errors.As(err, &ErrNotFound{}) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestState(t)
	_, err := s.Packet("FFFFFFFF")
	var nf ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if nf.DeviceID != "FFFFFFFF" || nf.Key != "" {
		t.Errorf("got %+v", nf)
	}
	if _, err = s.Device("FFFFFFFF"); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOnNotifyIgnoresUndecoded(t *testing.T) {
	s := newTestState(t)
	s.OnNotify("0A0B0C0D", []byte{1}, layers.UnknownPacketType, nil)
	devices, err := s.Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 0 {
		t.Errorf("got %v", devices)
	}
}

func TestDevicesAndLost(t *testing.T) {
	s := newTestState(t)
	for _, id := range []string{"0000000B", "0000000A"} {
		if err := s.PutPacket(&collector.HardwarePacket{DeviceID: id}, nil); err != nil {
			t.Fatal(err)
		}
	}
	header, err := layers.NewFrame(0x0B, layers.PacketTypeRealtime, make([]byte, 10))
	if err != nil {
		t.Fatal(err)
	}
	lost := &collector.JointPacket{Sn: 1}
	lost.Parts[1] = header
	s.OnPacketLost(lost)
	s.OnPacketLost(lost)
	s.OnPacketLost(&collector.JointPacket{Sn: 2})

	devices, err := s.Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 2 || devices[0].ID != "0000000A" || devices[1].ID != "0000000B" {
		t.Fatalf("got %+v", devices)
	}
	if devices[0].Lost != 0 || devices[1].Lost != 2 {
		t.Errorf("lost %d %d", devices[0].Lost, devices[1].Lost)
	}
	if !devices[0].LastSeen.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("last seen %v", devices[0].LastSeen)
	}
	if _, err = s.Frame("0000000A"); !errors.As(err, &ErrNotFound{}) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
