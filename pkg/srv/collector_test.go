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
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/console"
	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/store"
)

const testDevice uint32 = 0x0A0B0C0D

func realtimeFrame(t *testing.T, sn byte) []byte {
	t.Helper()
	payload := make([]byte, collector.RealtimeFrameSize-layers.CollectorMinFrameSize)
	payload[3] = sn
	frame, err := layers.NewFrame(testDevice, layers.PacketTypeRealtime, payload)
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.SetPath(filepath.Join(t.TempDir(), "config"))
	cfg.DBPath = filepath.Join(t.TempDir(), "state.db")
	cfg.Devices = []*config.Device{{ID: "0A0B0C0D", OrderNum: 7}}
	return cfg
}

func newTestState(t *testing.T) *store.State {
	t.Helper()
	s, err := store.NewState(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCollectorServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	packets := make(chan *collector.HardwarePacket, 4)
	listener := collector.ListenerFuncs{
		Notify: func(deviceID string, data []byte, meta layers.PacketTypeMeta, decoded interface{}) {
			if hp, ok := decoded.(*collector.HardwarePacket); ok {
				packets <- hp
			}
		},
	}
	cfg := testConfig(t)
	s := NewCollectorServer(ctx, cfg.CollectorConfig, collector.NewParser(), listener)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	first := realtimeFrame(t, 1)
	stream := append([]byte{0x00, 0x55}, first[:100]...)
	if _, err = conn.Write(stream); err != nil {
		t.Fatal(err)
	}
	if _, err = conn.Write(append(first[100:], realtimeFrame(t, 2)...)); err != nil {
		t.Fatal(err)
	}

	for _, want := range []uint32{1, 2} {
		select {
		case hp := <-packets:
			if hp.PacketSn != want || hp.DeviceID != "0A0B0C0D" {
				t.Errorf("got packet %d of %s, want %d", hp.PacketSn, hp.DeviceID, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for packet %d", want)
		}
	}

	cancel()
	select {
	case err = <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestConsoleForwarder(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	cfg := testConfig(t)
	cfg.Console.Enabled = true
	cfg.Console.Address = "127.0.0.1"
	cfg.Console.Port = pc.LocalAddr().(*net.UDPAddr).Port
	f, err := NewConsoleForwarder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	bp := &collector.BpPacket{DeviceID: "0A0B0C0D", Time: 1700000000000, Systolic: 118, Diastolic: 76}
	f.OnNotify(bp.DeviceID, nil, layers.FindPacketType(uint8(layers.PacketTypeBpData)), bp)
	hp := &collector.HardwarePacket{
		DeviceID:    "0A0B0C0D",
		PacketSn:    5,
		Hr:          64,
		RawRespList: []int{10, 20},
	}
	f.OnNotify(hp.DeviceID, nil, layers.FindPacketType(uint8(layers.PacketTypeRealtime)), hp)

	buffer := make([]byte, 2048)
	pc.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, _, err := pc.ReadFrom(buffer)
	if err != nil {
		t.Fatal(err)
	}
	if n != console.FrameSize {
		t.Fatalf("got %d bytes", n)
	}
	p, err := console.Parse(buffer[:n])
	if err != nil {
		t.Fatal(err)
	}
	if p.OrderNum != 7 || p.DeviceID != "0A0B0C0D" || p.PackageSn != 5 || p.Hr != 64 {
		t.Errorf("got %+v", p)
	}
	if p.RespList[0] != 10 || p.RespList[1] != 20 {
		t.Errorf("resp %v", p.RespList[:2])
	}
	if p.Systolic != 118 || p.Diastolic != 76 || p.BpTime != 1700000000 {
		t.Errorf("bp %d/%d at %d", p.Systolic, p.Diastolic, p.BpTime)
	}
	if hp.OrderNum != 0 || hp.RespList != nil {
		t.Error("forwarder modified the record")
	}
}

func TestConsoleForwarderDisabled(t *testing.T) {
	_, err := NewConsoleForwarder(testConfig(t))
	if !errors.As(err, &ErrConsoleDisabled{}) {
		t.Errorf("expected ErrConsoleDisabled, got %v", err)
	}
}
