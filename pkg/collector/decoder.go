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
	"time"

	"github.com/vitalwave/go-collector/pkg/framebuf"
	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/metrics"
)

// DefaultBpWindow suppresses repeated blood pressure data from one device.
const DefaultBpWindow = 10 * time.Second

// Decoder turns the byte stream of one connection into frames. It keeps
// the unframed bytes and the pending fragment sets between calls to
// Resolve and is not safe for concurrent use.
type Decoder struct {
	buf          *framebuf.Buffer
	jointer      *Jointer
	parser       *Parser
	listener     Listener
	jointTimeout time.Duration
	bpWindow     time.Duration
	bpSeen       map[string]time.Time
	now          func() time.Time
}

type Option func(*Decoder)

// WithParser shares p, and with it the battery cache, across decoders.
func WithParser(p *Parser) Option {
	return func(d *Decoder) {
		d.parser = p
	}
}

func WithJointTimeout(timeout time.Duration) Option {
	return func(d *Decoder) {
		d.jointTimeout = timeout
	}
}

func WithBpWindow(window time.Duration) Option {
	return func(d *Decoder) {
		d.bpWindow = window
	}
}

// WithClock replaces time.Now for the decoder and its jointer.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		d.now = now
		d.jointer.SetClock(now)
	}
}

func NewDecoder(listener Listener, opts ...Option) *Decoder {
	d := &Decoder{
		buf:          framebuf.New(),
		jointer:      NewJointer(),
		listener:     listener,
		jointTimeout: DefaultJointTimeout,
		bpWindow:     DefaultBpWindow,
		bpSeen:       make(map[string]time.Time),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.parser == nil {
		d.parser = NewParser()
	}
	return d
}

func (d *Decoder) Parser() *Parser {
	return d.parser
}

// Buffered returns the number of bytes waiting for a complete frame.
func (d *Decoder) Buffered() int {
	return d.buf.Len()
}

// Pending returns the number of incomplete fragment sets.
func (d *Decoder) Pending() int {
	return d.jointer.Pending()
}

// Reset drops the buffered bytes. Pending fragment sets are kept and time
// out as usual.
func (d *Decoder) Reset() {
	d.buf.Clear()
}

// Resolve appends data and delivers every complete frame found. Bytes of
// an incomplete frame stay buffered until the next call.
func (d *Decoder) Resolve(data []byte) {
	d.buf.Write(data)
	metrics.BytesReceived.Add(float64(len(data)))

	for d.buf.Len() >= layers.CollectorHeaderSize {
		start := d.buf.Find(layers.CollectorSync, 0)
		if start < 0 {
			log.Debug("No sync in %d bytes, discarding", d.buf.Len())
			metrics.BytesDiscarded.Add(float64(d.buf.Len()))
			d.buf.Clear()
			return
		}
		if start > 0 {
			d.buf.Read(0, start, true)
			metrics.BytesDiscarded.Add(float64(start))
			continue
		}

		header := d.buf.Read(0, layers.CollectorHeaderSize, false)
		length := layers.FrameLength(header)
		deviceID := layers.FrameDeviceID(header)
		if length >= layers.CollectorMinFrameSize && d.buf.Len() < length {
			return
		}
		var frame []byte
		if length >= layers.CollectorMinFrameSize {
			frame = d.buf.Read(0, length, false)
		}
		if frame == nil || !layers.Verify(frame) {
			log.Debug("Frame of %s failed verification, skipping sync", deviceID)
			metrics.VerifyFailures.Inc()
			d.buf.Read(0, len(layers.CollectorSync), true)
			continue
		}
		d.buf.Read(0, length, true)
		d.dispatch(deviceID, frame)
	}
}

func (d *Decoder) dispatch(deviceID string, frame []byte) {
	meta := layers.FindPacketType(frame[8])
	metrics.Frames.WithLabelValues(meta.Name).Inc()

	switch {
	case meta.Data && len(frame) <= MaxFragmentSize:
		metrics.Fragments.Inc()
		jp := d.jointer.Add(frame)
		if jp == nil {
			d.jointer.CheckTimeout(d.lost, d.jointTimeout)
			return
		}
		joined, err := d.jointer.Joint(jp)
		if err != nil {
			log.Warning("Unable to join packet %d of %s: %s", jp.Sn, deviceID, err)
			d.lost(jp)
			return
		}
		metrics.Joined.Inc()
		// listeners see the fragment type, the joined frame carries 0x03 or 0xF3
		d.deliverParsed(deviceID, joined, meta)
	case meta.Data:
		d.deliverParsed(deviceID, frame, meta)
	case meta.Code == layers.PacketTypeBpData:
		now := d.now()
		if last, ok := d.bpSeen[deviceID]; ok && d.bpWindow > 0 && now.Sub(last) <= d.bpWindow {
			log.Debug("Blood pressure of %s repeated within %s, dropped", deviceID, d.bpWindow)
			metrics.BpSuppressed.Inc()
			return
		}
		bp, err := d.parser.ParseBp(deviceID, frame)
		if err != nil {
			log.Warning("Unable to decode blood pressure of %s: %s", deviceID, err)
			metrics.ParseErrors.Inc()
			d.listener.OnNotify(deviceID, frame, meta, nil)
			return
		}
		d.bpSeen[deviceID] = now
		d.listener.OnNotify(deviceID, frame, meta, bp)
	default:
		d.listener.OnNotify(deviceID, frame, meta, nil)
	}
}

func (d *Decoder) deliverParsed(deviceID string, frame []byte, meta layers.PacketTypeMeta) {
	hp, err := d.parser.Parse(frame, deviceID)
	if err != nil {
		log.Warning("Unable to decode %s frame of %s: %s", meta.Name, deviceID, err)
		metrics.ParseErrors.Inc()
		d.listener.OnNotify(deviceID, frame, meta, nil)
		return
	}
	d.listener.OnNotify(deviceID, frame, meta, hp)
}

// Flush reports every pending fragment set as lost. It is meant for the
// end of a finite capture.
func (d *Decoder) Flush() {
	d.jointer.Drain(d.lost)
}

func (d *Decoder) lost(jp *JointPacket) {
	metrics.Lost.Inc()
	d.listener.OnPacketLost(jp)
}
