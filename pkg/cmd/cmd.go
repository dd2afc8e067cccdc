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

// Package cmd runs the codec over captured bytes for the offline commands.
package cmd

import (
	"io/ioutil"
	"strings"
	"unicode"

	"github.com/google/gopacket"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/console"
	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/numeric"
)

// Record is one thing a decoder delivered from a capture.
type Record struct {
	DeviceID string      `json:"deviceId"`
	Type     string      `json:"type"`
	Frame    string      `json:"frame"`
	Decoded  interface{} `json:"decoded,omitempty"`
	// Lost is the sequence number of an incomplete fragment set
	Lost *uint32 `json:"lost,omitempty"`
}

// ReadHex returns the bytes of a hex capture given as a file or as
// arguments. White space and an optional 0x prefix per chunk are ignored.
func ReadHex(file string, args []string) ([]byte, error) {
	text := strings.Join(args, " ")
	if file != "" {
		data, err := ioutil.ReadFile(file)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	var b strings.Builder
	for _, chunk := range strings.FieldsFunc(text, unicode.IsSpace) {
		chunk = strings.TrimPrefix(strings.TrimPrefix(chunk, "0x"), "0X")
		b.WriteString(chunk)
	}
	return numeric.HexToBytes(b.String())
}

// Decode feeds a whole capture to one decoder and flushes the fragment
// sets still pending at the end as lost.
func Decode(data []byte, cfg *config.CollectorConfig) []Record {
	var records []Record
	listener := collector.ListenerFuncs{
		Notify: func(deviceID string, frame []byte, t layers.PacketTypeMeta, decoded interface{}) {
			records = append(records, Record{
				DeviceID: deviceID,
				Type:     t.Name,
				Frame:    numeric.BytesToHex(frame),
				Decoded:  decoded,
			})
		},
		PacketLost: func(lost *collector.JointPacket) {
			sn := lost.Sn
			records = append(records, Record{DeviceID: lost.DeviceID(), Type: "lost", Lost: &sn})
		},
	}
	var opts []collector.Option
	if cfg != nil && cfg.BpWindowMs != 0 {
		opts = append(opts, collector.WithBpWindow(cfg.BpWindow()))
	}
	d := collector.NewDecoder(listener, opts...)
	d.Resolve(data)
	d.Flush()
	return records
}

// Convert decodes a capture and transcodes every realtime record to a
// console frame. Blood pressure results are carried into the frames that
// follow them.
func Convert(data []byte, cfg *config.Config) [][]byte {
	var frames [][]byte
	bp := make(map[string]*collector.BpPacket)
	for _, r := range Decode(data, cfg.CollectorConfig) {
		switch v := r.Decoded.(type) {
		case *collector.BpPacket:
			bp[v.DeviceID] = v
		case *collector.HardwarePacket:
			rec := console.ForwardRecord(v, cfg.OrderNum(v.DeviceID))
			frames = append(frames, console.Convert(rec, bp[rec.DeviceID]))
		}
	}
	return frames
}

// Dump renders the gopacket layers of one collector frame.
func Dump(frame []byte) string {
	return gopacket.NewPacket(frame, layers.CollectorLayerType, gopacket.Default).Dump()
}

// DumpConsole renders the gopacket layers of one console frame.
func DumpConsole(frame []byte) string {
	return gopacket.NewPacket(frame, console.ConsoleLayerType, gopacket.Default).Dump()
}
