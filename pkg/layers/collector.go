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

package layers

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// CollectorLayerNum identifies the layer
	CollectorLayerNum = 1990
	// CollectorHeaderSize is sync(2) + length(2) + device id(4) + type(1).
	// It is also the least the stream decoder needs to peek at a frame.
	CollectorHeaderSize = 9
	// CollectorMinFrameSize is a header and a checksum with no payload
	CollectorMinFrameSize = CollectorHeaderSize + 1
)

// CollectorSync is the magic that starts every collector frame
var CollectorSync = []byte{0x55, 0xAA}

type CollectorLayer struct {
	layers.BaseLayer
	// Length is the frame length minus the two sync bytes
	Length   uint16
	DeviceID uint32
	Type     PacketType
	Checksum uint8
}

var CollectorLayerType = gopacket.RegisterLayerType(CollectorLayerNum,
	gopacket.LayerTypeMetadata{Name: "CollectorLayerType", Decoder: gopacket.DecodeFunc(decodeCollectorLayer)})

func (cl *CollectorLayer) LayerType() gopacket.LayerType {
	return CollectorLayerType
}

func (cl *CollectorLayer) DeviceIDHex() string {
	return fmt.Sprintf("%08X", cl.DeviceID)
}

// SerializeTo wraps whatever is already in the buffer into a frame.
// FixLengths rewrites Length, ComputeChecksums rewrites Checksum.
func (cl *CollectorLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	payloadLen := len(b.Bytes())
	header, err := b.PrependBytes(CollectorHeaderSize)
	if err != nil {
		return err
	}
	if opts.FixLengths {
		cl.Length = uint16(CollectorHeaderSize + payloadLen + 1 - len(CollectorSync))
	}
	copy(header[0:2], CollectorSync)
	binary.BigEndian.PutUint16(header[2:4], cl.Length)
	binary.BigEndian.PutUint32(header[4:8], cl.DeviceID)
	header[8] = uint8(cl.Type)

	tail, err := b.AppendBytes(1)
	if err != nil {
		return err
	}
	if opts.ComputeChecksums {
		cl.Checksum = Checksum(b.Bytes())
	}
	tail[0] = cl.Checksum
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a collector frame.
// It does not verify the checksum, see Verify.
func (cl *CollectorLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < CollectorMinFrameSize {
		df.SetTruncated()
		return ErrFrameTooShort{Length: len(data), Min: CollectorMinFrameSize}
	}
	if data[0] != CollectorSync[0] || data[1] != CollectorSync[1] {
		return ErrWrongSync{Sync: binary.BigEndian.Uint16(data[0:2])}
	}

	cl.BaseLayer = layers.BaseLayer{
		Contents: data[0:CollectorHeaderSize],
		Payload:  data[CollectorHeaderSize : len(data)-1],
	}
	cl.Length = binary.BigEndian.Uint16(data[2:4])
	cl.DeviceID = binary.BigEndian.Uint32(data[4:8])
	cl.Type = PacketType(data[8])
	cl.Checksum = data[len(data)-1]
	return nil
}

func (cl *CollectorLayer) CanDecode() gopacket.LayerClass {
	return CollectorLayerType
}

func (cl *CollectorLayer) NextLayerType() gopacket.LayerType {
	return cl.Type.LayerType()
}

func decodeCollectorLayer(data []byte, p gopacket.PacketBuilder) error {
	cl := &CollectorLayer{}
	err := cl.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(cl)
	return p.NextDecoder(cl.Type)
}

// Checksum is the sum of every byte but the last, modulo 256.
func Checksum(frame []byte) uint8 {
	var sum uint8
	for i := 0; i < len(frame)-1; i++ {
		sum += frame[i]
	}
	return sum
}

// Verify checks the sync, that the length field equals len(frame)-2 and
// that the last byte is the checksum of the rest.
func Verify(frame []byte) bool {
	if len(frame) < CollectorMinFrameSize {
		return false
	}
	if frame[0] != CollectorSync[0] || frame[1] != CollectorSync[1] {
		return false
	}
	if int(binary.BigEndian.Uint16(frame[2:4])) != len(frame)-2 {
		return false
	}
	return Checksum(frame) == frame[len(frame)-1]
}

// FrameLength returns the full frame length declared by a header.
func FrameLength(header []byte) int {
	return int(binary.BigEndian.Uint16(header[2:4])) + len(CollectorSync)
}

// FrameDeviceID returns the device id of a header as uppercase hex.
func FrameDeviceID(header []byte) string {
	return fmt.Sprintf("%08X", binary.BigEndian.Uint32(header[4:8]))
}

// NewFrame builds a complete frame around payload.
func NewFrame(deviceID uint32, t PacketType, payload []byte) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts,
		&CollectorLayer{DeviceID: deviceID, Type: t},
		gopacket.Payload(payload),
	)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
