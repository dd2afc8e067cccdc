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
	"net"
	"sync"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/console"
	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/metrics"
)

// ConsoleForwarder is a collector.Listener sending every realtime record
// to the central station console as one UDP datagram.
type ConsoleForwarder struct {
	*config.Config

	mu   sync.Mutex
	conn net.Conn
	bp   map[string]*collector.BpPacket
}

func NewConsoleForwarder(cfg *config.Config) (*ConsoleForwarder, error) {
	if cfg.Console == nil || !cfg.Console.Enabled {
		return nil, ErrConsoleDisabled{}
	}
	log.Info("Forwarding console frames to %s", cfg.Console.Endpoint())
	conn, err := net.Dial("udp", cfg.Console.Endpoint())
	if err != nil {
		return nil, err
	}
	return &ConsoleForwarder{
		Config: cfg,
		conn:   conn,
		bp:     make(map[string]*collector.BpPacket),
	}, nil
}

func (f *ConsoleForwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn.Close()
}

func consoleRecord(cfg *config.Config, hp *collector.HardwarePacket) *collector.HardwarePacket {
	return console.ForwardRecord(hp, cfg.OrderNum(hp.DeviceID))
}

// Frame transcodes a record with the latest blood pressure result of its
// device. The record itself is not modified.
func (f *ConsoleForwarder) Frame(hp *collector.HardwarePacket) []byte {
	f.mu.Lock()
	bp := f.bp[hp.DeviceID]
	f.mu.Unlock()
	return console.Convert(consoleRecord(f.Config, hp), bp)
}

func (f *ConsoleForwarder) OnNotify(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{}) {
	switch v := decoded.(type) {
	case *collector.BpPacket:
		f.mu.Lock()
		f.bp[v.DeviceID] = v
		f.mu.Unlock()
	case *collector.HardwarePacket:
		frame := f.Frame(v)
		f.mu.Lock()
		_, err := f.conn.Write(frame)
		f.mu.Unlock()
		if err != nil {
			log.Warning("Error while forwarding packet %d of device %s: %s", v.PacketSn, deviceID, err)
			return
		}
		metrics.ConsoleForwarded.Inc()
	}
}

func (f *ConsoleForwarder) OnPacketLost(lost *collector.JointPacket) {
	log.Debug("Packet %d of device %s lost, nothing forwarded", lost.Sn, lost.DeviceID())
}
