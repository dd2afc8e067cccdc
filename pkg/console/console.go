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

// Package console reads and writes the fixed 652 byte frames of the
// central station console.
package console

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/vitalwave/go-collector/pkg/numeric"
)

const (
	// ConsoleLayerNum identifies the layer
	ConsoleLayerNum = 1992
	// FrameSize is the only size a console frame comes in
	FrameSize = 652
	// Head opens every console frame
	Head = 0x1226
	// TypeRealtime is the only frame type the console knows
	TypeRealtime = 0x01

	RespSamples        = 25
	EcgSamples         = 200
	Spo2Samples        = 50
	TidalVolumeSamples = 25
)

const (
	offHead         = 0
	offType         = 2
	offLength       = 3
	offOrderNum     = 5
	offDeviceID     = 6
	offSn           = 10
	offResp         = 14
	offAbdominal    = 64
	offEcg          = 114
	offSpo2Wave     = 514
	offHr           = 564
	offRr           = 566
	offPulseRate    = 567
	offTemperature  = 569
	offSpo2         = 571
	offOutBattery   = 572
	offConnAlarm    = 573
	offSignalAlarm  = 574
	offOtherAlarm   = 575
	offGesture      = 576
	offWifi         = 577
	offCalibration  = 578
	offEiRatio      = 579
	offCaRatio      = 580
	offTidalVolume  = 581
	offArrhythmia   = 631
	offAcceleration = 632
	offStep         = 634
	offSportsTrend  = 635
	offTime         = 636
	offBpTime       = 640
	offSystolic     = 644
	offDiastolic    = 646
	offVolume       = 648
	offCircle       = 650
	offSpo2Battery  = 651
)

// Packet is a console frame with every field unpacked. The three alarm
// bytes are kept whole, see the alarm helpers.
type Packet struct {
	Head           string `json:"head"`
	PackageType    uint8  `json:"packageType"`
	Length         int    `json:"length"`
	OrderNum       int    `json:"orderNum"`
	DeviceID       string `json:"deviceId"`
	PackageSn      uint32 `json:"packageSn"`
	RespList       []int  `json:"respList"`
	AbdominalList  []int  `json:"abdominalList"`
	EcgList        []int  `json:"ecgList"`
	Spo2List       []int  `json:"spo2List"`
	Hr             int    `json:"hr"`
	Rr             int    `json:"rr"`
	PulseRate      int    `json:"pulseRate"`
	Temperature    int    `json:"temperature"`
	Spo2           int    `json:"spo2"`
	OutBattery     int    `json:"outBattery"`
	ConnAbnormal   uint8  `json:"connAbnormal"`
	SignalAbnormal uint8  `json:"signalAbnormal"`
	OtherAbnormal  uint8  `json:"otherAbnormal"`
	Gesture        int    `json:"gesture"`
	WifiSignal     int    `json:"wifiSignal"`
	Calibration    int    `json:"calibration"`
	EiRatio        int    `json:"eiRatio"`
	CaRatio        int    `json:"caRatio"`
	TidalVolume    []int  `json:"tidalVolumeList"`
	ArrhythmiaType int    `json:"arrhythmiaType"`
	Acceleration   int    `json:"acceleration"`
	Step           int    `json:"step"`
	SportsTrend    int    `json:"sportTrends"`
	Time           uint32 `json:"time"`
	BpTime         uint32 `json:"bpTime"`
	Systolic       int    `json:"systolic"`
	Diastolic      int    `json:"diastolic"`
	Volume         int    `json:"volume"`
	Circle         int    `json:"circle"`
	Spo2Battery    int    `json:"spo2Battery"`
}

type ErrConsoleFrameTooShort struct {
	Length int
}

func (e ErrConsoleFrameTooShort) Error() string {
	return fmt.Sprintf("Console frame too short: %d bytes, need %d", e.Length, FrameSize)
}

type ConsoleLayer struct {
	layers.BaseLayer
	Packet
}

var ConsoleLayerType = gopacket.RegisterLayerType(ConsoleLayerNum,
	gopacket.LayerTypeMetadata{Name: "ConsoleLayerType", Decoder: gopacket.DecodeFunc(decodeConsoleLayer)})

func (cl *ConsoleLayer) LayerType() gopacket.LayerType {
	return ConsoleLayerType
}

// Serialize writes the packet to a FrameSize buffer.
func (cl *ConsoleLayer) Serialize(buf []byte) error {
	head, err := numeric.HexToNumber(cl.Head, true, false)
	if err != nil {
		return err
	}
	deviceID, err := numeric.HexToNumber(cl.DeviceID, true, false)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf[offHead:], uint16(head))
	buf[offType] = cl.PackageType
	binary.BigEndian.PutUint16(buf[offLength:], uint16(cl.Length))
	buf[offOrderNum] = uint8(cl.OrderNum)
	binary.BigEndian.PutUint32(buf[offDeviceID:], uint32(deviceID))
	binary.BigEndian.PutUint32(buf[offSn:], cl.PackageSn)
	putU16Array(buf, offResp, RespSamples, cl.RespList)
	putU16Array(buf, offAbdominal, RespSamples, cl.AbdominalList)
	putU16Array(buf, offEcg, EcgSamples, cl.EcgList)
	for i := 0; i < Spo2Samples; i++ {
		buf[offSpo2Wave+i] = uint8(at(cl.Spo2List, i))
	}
	binary.BigEndian.PutUint16(buf[offHr:], uint16(cl.Hr))
	buf[offRr] = uint8(cl.Rr)
	binary.BigEndian.PutUint16(buf[offPulseRate:], uint16(cl.PulseRate))
	binary.BigEndian.PutUint16(buf[offTemperature:], uint16(cl.Temperature))
	buf[offSpo2] = uint8(cl.Spo2)
	buf[offOutBattery] = uint8(cl.OutBattery)
	buf[offConnAlarm] = cl.ConnAbnormal
	buf[offSignalAlarm] = cl.SignalAbnormal
	buf[offOtherAlarm] = cl.OtherAbnormal
	buf[offGesture] = uint8(cl.Gesture)
	buf[offWifi] = uint8(cl.WifiSignal)
	buf[offCalibration] = uint8(cl.Calibration)
	buf[offEiRatio] = uint8(cl.EiRatio)
	buf[offCaRatio] = uint8(cl.CaRatio)
	putU16Array(buf, offTidalVolume, TidalVolumeSamples, cl.TidalVolume)
	buf[offArrhythmia] = uint8(cl.ArrhythmiaType)
	binary.BigEndian.PutUint16(buf[offAcceleration:], uint16(cl.Acceleration))
	buf[offStep] = uint8(cl.Step)
	buf[offSportsTrend] = uint8(cl.SportsTrend)
	binary.BigEndian.PutUint32(buf[offTime:], cl.Time)
	binary.BigEndian.PutUint32(buf[offBpTime:], cl.BpTime)
	binary.BigEndian.PutUint16(buf[offSystolic:], uint16(cl.Systolic))
	binary.BigEndian.PutUint16(buf[offDiastolic:], uint16(cl.Diastolic))
	binary.BigEndian.PutUint16(buf[offVolume:], uint16(cl.Volume))
	buf[offCircle] = uint8(cl.Circle)
	buf[offSpo2Battery] = uint8(cl.Spo2Battery)
	return nil
}

// SerializeTo prepends one frame. FixLengths sets the head, type and
// length to their only valid values.
func (cl *ConsoleLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if opts.FixLengths {
		cl.Head = fmt.Sprintf("%04X", Head)
		cl.PackageType = TypeRealtime
		cl.Length = FrameSize
	}
	bytes, err := b.PrependBytes(FrameSize)
	if err != nil {
		return err
	}
	for i := range bytes {
		bytes[i] = 0
	}
	return cl.Serialize(bytes)
}

func (cl *ConsoleLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FrameSize {
		df.SetTruncated()
		return ErrConsoleFrameTooShort{Length: len(data)}
	}
	cl.BaseLayer = layers.BaseLayer{
		Contents: data[:FrameSize],
		Payload:  data[FrameSize:],
	}
	cl.Packet = Packet{
		Head:           numeric.BytesToHex(data[offHead : offHead+2]),
		PackageType:    data[offType],
		Length:         numeric.U16(data, offLength),
		OrderNum:       int(data[offOrderNum]),
		DeviceID:       numeric.BytesToHex(data[offDeviceID : offDeviceID+4]),
		PackageSn:      numeric.U32(data, offSn),
		RespList:       u16Array(data, offResp, RespSamples),
		AbdominalList:  u16Array(data, offAbdominal, RespSamples),
		EcgList:        u16Array(data, offEcg, EcgSamples),
		Spo2List:       make([]int, Spo2Samples),
		Hr:             numeric.U16(data, offHr),
		Rr:             int(data[offRr]),
		PulseRate:      numeric.U16(data, offPulseRate),
		Temperature:    numeric.U16(data, offTemperature),
		Spo2:           int(data[offSpo2]),
		OutBattery:     int(data[offOutBattery]),
		ConnAbnormal:   data[offConnAlarm],
		SignalAbnormal: data[offSignalAlarm],
		OtherAbnormal:  data[offOtherAlarm],
		Gesture:        int(data[offGesture]),
		WifiSignal:     int(data[offWifi]),
		Calibration:    int(data[offCalibration]),
		EiRatio:        int(data[offEiRatio]),
		CaRatio:        int(data[offCaRatio]),
		TidalVolume:    u16Array(data, offTidalVolume, TidalVolumeSamples),
		ArrhythmiaType: int(data[offArrhythmia]),
		Acceleration:   numeric.U16(data, offAcceleration),
		Step:           int(data[offStep]),
		SportsTrend:    int(data[offSportsTrend]),
		Time:           numeric.U32(data, offTime),
		BpTime:         numeric.U32(data, offBpTime),
		Systolic:       numeric.U16(data, offSystolic),
		Diastolic:      numeric.U16(data, offDiastolic),
		Volume:         numeric.U16(data, offVolume),
		Circle:         int(data[offCircle]),
		Spo2Battery:    int(data[offSpo2Battery]),
	}
	for i := range cl.Spo2List {
		cl.Spo2List[i] = int(data[offSpo2Wave+i])
	}
	return nil
}

func (cl *ConsoleLayer) CanDecode() gopacket.LayerClass {
	return ConsoleLayerType
}

func (cl *ConsoleLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func decodeConsoleLayer(data []byte, p gopacket.PacketBuilder) error {
	cl := &ConsoleLayer{}
	err := cl.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(cl)
	return p.NextDecoder(gopacket.LayerTypePayload)
}

// Parse reads one console frame. Bytes past FrameSize are ignored.
// ConnAbnormal keeps the whole conn alarm byte, but only bits 0 and 2 to 5
// map to a HardwarePacket field, so ToHardwarePacket followed by Convert
// clears bits 1, 6 and 7.
func Parse(frame []byte) (*Packet, error) {
	cl := &ConsoleLayer{}
	if err := cl.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return &cl.Packet, nil
}

func u16Array(data []byte, offset, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = numeric.U16(data, offset+i*2)
	}
	return out
}

// putU16Array writes up to n samples, missing ones are left zero.
func putU16Array(buf []byte, offset, n int, values []int) {
	for i := 0; i < n && i < len(values); i++ {
		binary.BigEndian.PutUint16(buf[offset+i*2:], uint16(values[i]))
	}
}

func at(values []int, i int) int {
	if i < len(values) {
		return values[i]
	}
	return 0
}
