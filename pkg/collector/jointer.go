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
	"fmt"
	"sort"
	"time"

	"github.com/google/gopacket"

	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/numeric"
)

const (
	// MaxFragmentSize is the largest data frame handed to the Jointer,
	// bigger ones are complete on their own.
	MaxFragmentSize = 400
	// DefaultJointTimeout is how long a fragment set may wait for its
	// missing parts.
	DefaultJointTimeout = 2 * time.Second

	fragmentSlots   = 4
	offSlot         = 13
	minFragmentSize = offSlot + 1
)

// jointRange copies Parts[slot][from:to] to the joined frame at offset at.
type jointRange struct {
	slot, from, to, at int
}

// A five second super frame arrives as three sub frames, four with the
// flow meter. Each range skips the header of its fragment.
var jointRanges = []jointRange{
	{0, 0, 13, 0},
	{0, 14, 20, 13},
	{0, 20, 70, 19},
	{0, 70, 196, 119},
	{1, 14, 140, 245},
	{2, 14, 187, 371},
}

var flowMeterRange = jointRange{3, 14, 139, 544}

type ErrFragmentTooShort struct {
	Sn     uint32
	Slot   int
	Length int
	Min    int
}

func (e ErrFragmentTooShort) Error() string {
	return fmt.Sprintf("Fragment %d of packet %d too short: %d bytes, need %d",
		e.Slot, e.Sn, e.Length, e.Min)
}

// JointPacket is a pending set of fragments sharing one sequence number.
type JointPacket struct {
	Sn          uint32                `json:"sn"`
	Parts       [fragmentSlots][]byte `json:"parts"`
	RefreshTime time.Time             `json:"refreshTime"`
}

// Complete is true once slots 0 to 2 are filled, and slot 3 too when slot 0
// announces a flow meter fragment.
func (jp *JointPacket) Complete() bool {
	if jp.Parts[0] == nil || jp.Parts[1] == nil || jp.Parts[2] == nil {
		return false
	}
	if layers.PacketType(jp.Parts[0][8]) == layers.PacketTypeFlowMeterExtended {
		return jp.Parts[3] != nil
	}
	return true
}

// DeviceID returns the device of the first fragment present.
func (jp *JointPacket) DeviceID() string {
	for _, part := range jp.Parts {
		if len(part) >= layers.CollectorHeaderSize {
			return layers.FrameDeviceID(part)
		}
	}
	return ""
}

// Jointer collects fragments until a set is complete. It is owned by one
// stream decoder and is not safe for concurrent use.
type Jointer struct {
	queue map[uint32]*JointPacket
	now   func() time.Time
}

func NewJointer() *Jointer {
	return &Jointer{
		queue: make(map[uint32]*JointPacket),
		now:   time.Now,
	}
}

func (j *Jointer) SetClock(now func() time.Time) {
	j.now = now
}

// Add stores a fragment and returns its set once the set is complete. The
// complete set is removed from the queue.
func (j *Jointer) Add(fragment []byte) *JointPacket {
	if len(fragment) < minFragmentSize {
		log.Debug("Fragment of %d bytes has no slot, dropped", len(fragment))
		return nil
	}
	sn := numeric.U32(fragment, offSn)
	jp, ok := j.queue[sn]
	if !ok {
		jp = &JointPacket{Sn: sn}
		j.queue[sn] = jp
	}
	slot := int(fragment[offSlot])
	if slot < fragmentSlots {
		jp.Parts[slot] = fragment
	} else {
		log.Debug("Fragment of packet %d has slot %d, ignored", sn, slot)
	}
	jp.RefreshTime = j.now()
	if jp.Complete() {
		delete(j.queue, sn)
		return jp
	}
	return nil
}

// Joint builds one realtime frame out of a complete set: 545 bytes, or 670
// with the flow meter fragment. Length and checksum are recomputed.
func (j *Jointer) Joint(jp *JointPacket) ([]byte, error) {
	ranges := jointRanges
	size := RealtimeFrameSize
	typ := layers.PacketTypeRealtime
	if jp.Parts[3] != nil {
		ranges = append(append([]jointRange{}, jointRanges...), flowMeterRange)
		size = FlowMeterFrameSize
		typ = layers.PacketTypeRealtimeFlowMeter
	}

	out := make([]byte, size)
	for _, r := range ranges {
		part := jp.Parts[r.slot]
		if len(part) < r.to {
			return nil, ErrFragmentTooShort{Sn: jp.Sn, Slot: r.slot, Length: len(part), Min: r.to}
		}
		copy(out[r.at:], part[r.from:r.to])
	}

	buf := gopacket.NewSerializeBufferExpectedSize(layers.CollectorHeaderSize, 1)
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts,
		&layers.CollectorLayer{DeviceID: numeric.U32(out, 4), Type: typ},
		gopacket.Payload(out[layers.CollectorHeaderSize:size-1]),
	)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CheckTimeout evicts every set untouched for timeout or longer and hands
// it to cb. A panicking cb is logged and the set is evicted anyway.
func (j *Jointer) CheckTimeout(cb func(*JointPacket), timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultJointTimeout
	}
	now := j.now()
	for _, sn := range j.sortedKeys() {
		jp := j.queue[sn]
		if now.Sub(jp.RefreshTime) < timeout {
			continue
		}
		j.evict(jp, cb)
	}
}

// Drain evicts every pending set regardless of age.
func (j *Jointer) Drain(cb func(*JointPacket)) {
	for _, sn := range j.sortedKeys() {
		j.evict(j.queue[sn], cb)
	}
}

func (j *Jointer) evict(jp *JointPacket, cb func(*JointPacket)) {
	defer delete(j.queue, jp.Sn)
	defer func() {
		if r := recover(); r != nil {
			log.Warning("Lost packet %d handler failed: %v", jp.Sn, r)
		}
	}()
	if cb != nil {
		cb(jp)
	}
}

// Pending returns the number of incomplete sets.
func (j *Jointer) Pending() int {
	return len(j.queue)
}

func (j *Jointer) sortedKeys() []uint32 {
	keys := make([]uint32, 0, len(j.queue))
	for sn := range j.queue {
		keys = append(keys, sn)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	return keys
}
