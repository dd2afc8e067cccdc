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
	"encoding/binary"
	"testing"
	"time"

	"github.com/vitalwave/go-collector/pkg/layers"
)

const testDevice uint32 = 0x0A0B0C0D
const testDeviceHex = "0A0B0C0D"

// fragmentSizes are the sizes the collector sends for slots 0 to 3
var fragmentSizes = [4]int{197, 191, 188, 140}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type notification struct {
	deviceID string
	data     []byte
	meta     layers.PacketTypeMeta
	decoded  interface{}
}

type recorder struct {
	notes []notification
	lost  []*JointPacket
}

func (r *recorder) OnNotify(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{}) {
	r.notes = append(r.notes, notification{deviceID, data, t, decoded})
}

func (r *recorder) OnPacketLost(lost *JointPacket) {
	r.lost = append(r.lost, lost)
}

// fragment builds a valid data frame of size bytes for the given slot.
// Payload bytes after the slot follow a pattern derived from the slot.
func fragment(t *testing.T, typ layers.PacketType, sn uint32, slot byte, size int) []byte {
	t.Helper()
	payload := make([]byte, size-layers.CollectorMinFrameSize)
	binary.BigEndian.PutUint32(payload[0:4], sn)
	payload[4] = slot
	for i := 5; i < len(payload); i++ {
		payload[i] = byte(i*7) + slot
	}
	frame, err := layers.NewFrame(testDevice, typ, payload)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return frame
}

// frameOf builds a zeroed frame of size bytes, lets set fill it in and
// fixes the checksum.
func frameOf(t *testing.T, typ layers.PacketType, size int, set func(f []byte)) []byte {
	t.Helper()
	frame, err := layers.NewFrame(testDevice, typ, make([]byte, size-layers.CollectorMinFrameSize))
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if set != nil {
		set(frame)
	}
	frame[len(frame)-1] = layers.Checksum(frame)
	return frame
}

func concat(frames ...[]byte) []byte {
	var out []byte
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
