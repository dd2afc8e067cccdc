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

package collector

import (
	"github.com/vitalwave/go-collector/pkg/layers"
)

// Listener receives what a Decoder makes of the stream. decoded is a
// *HardwarePacket for data frames, a *BpPacket for blood pressure data and
// nil otherwise or when decoding failed.
type Listener interface {
	OnNotify(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{})
	OnPacketLost(lost *JointPacket)
}

// ListenerFuncs adapts plain functions to Listener. Nil funcs are skipped.
type ListenerFuncs struct {
	Notify     func(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{})
	PacketLost func(lost *JointPacket)
}

func (l ListenerFuncs) OnNotify(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{}) {
	if l.Notify != nil {
		l.Notify(deviceID, data, t, decoded)
	}
}

func (l ListenerFuncs) OnPacketLost(lost *JointPacket) {
	if l.PacketLost != nil {
		l.PacketLost(lost)
	}
}

// MultiListener fans every callback out to all of its listeners in order.
type MultiListener []Listener

func (m MultiListener) OnNotify(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{}) {
	for _, l := range m {
		l.OnNotify(deviceID, data, t, decoded)
	}
}

func (m MultiListener) OnPacketLost(lost *JointPacket) {
	for _, l := range m {
		l.OnPacketLost(lost)
	}
}
