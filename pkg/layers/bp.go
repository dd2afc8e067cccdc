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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/vitalwave/go-collector/pkg/numeric"
)

const (
	// BpLayerNum identifies the layer
	BpLayerNum = 1991
	// BpLayerSize is time(4) + status(1) + four value bytes
	BpLayerSize = 9
)

// Status byte layout. The high nibble is the error code, the low nibble
// holds the ninth bit of each value.
var (
	bpErrField      = numeric.BitField{Offset: 4, Shift: 4, Width: 4}
	bpSystolicHigh  = numeric.Bit(4, 0)
	bpDiastolicHigh = numeric.Bit(4, 1)
	bpMeanHigh      = numeric.Bit(4, 2)
	bpPulseHigh     = numeric.Bit(4, 3)
)

// BpLayer is the payload of a blood_pressure_data frame.
type BpLayer struct {
	layers.BaseLayer
	// Time of the measurement in seconds, zero if the device did not set it
	Time      uint32
	Err       uint8
	Systolic  uint16
	Diastolic uint16
	Mean      uint16
	Pulse     uint16
}

var BpLayerType = gopacket.RegisterLayerType(BpLayerNum,
	gopacket.LayerTypeMetadata{Name: "BpLayerType", Decoder: gopacket.DecodeFunc(DecodeBpLayer)})

func (bp *BpLayer) LayerType() gopacket.LayerType {
	return BpLayerType
}

func (bp *BpLayer) Serialize(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], bp.Time)
	buf[4] = 0
	bpErrField.Write(buf, int(bp.Err))
	bpSystolicHigh.Write(buf, int(bp.Systolic>>8))
	bpDiastolicHigh.Write(buf, int(bp.Diastolic>>8))
	bpMeanHigh.Write(buf, int(bp.Mean>>8))
	bpPulseHigh.Write(buf, int(bp.Pulse>>8))
	buf[5] = uint8(bp.Systolic)
	buf[6] = uint8(bp.Diastolic)
	buf[7] = uint8(bp.Mean)
	buf[8] = uint8(bp.Pulse)
}

func (bp *BpLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(BpLayerSize)
	if err != nil {
		return err
	}
	bp.Serialize(bytes)
	return nil
}

func (bp *BpLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < BpLayerSize {
		df.SetTruncated()
		return ErrFrameTooShort{Length: len(data), Min: BpLayerSize}
	}
	bp.BaseLayer = layers.BaseLayer{
		Contents: data[:BpLayerSize],
		Payload:  data[BpLayerSize:],
	}
	bp.Time = binary.BigEndian.Uint32(data[0:4])
	bp.Err = uint8(bpErrField.Read(data))
	bp.Systolic = uint16(bpSystolicHigh.Read(data))<<8 | uint16(data[5])
	bp.Diastolic = uint16(bpDiastolicHigh.Read(data))<<8 | uint16(data[6])
	bp.Mean = uint16(bpMeanHigh.Read(data))<<8 | uint16(data[7])
	bp.Pulse = uint16(bpPulseHigh.Read(data))<<8 | uint16(data[8])
	return nil
}

func (bp *BpLayer) CanDecode() gopacket.LayerClass {
	return BpLayerType
}

func (bp *BpLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func DecodeBpLayer(data []byte, p gopacket.PacketBuilder) error {
	bp := &BpLayer{}
	err := bp.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(bp)
	return p.NextDecoder(gopacket.LayerTypePayload)
}
