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
	"time"

	"github.com/google/gopacket"

	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/numeric"
)

const (
	// RealtimeFrameSize is the size of a joined realtime frame
	RealtimeFrameSize = 545
	// FlowMeterFrameSize is RealtimeFrameSize plus the flow meter block
	FlowMeterFrameSize = 670

	FlowMeterSamples = 25
	flowMeterOffset  = 544
	flowMeterStride  = 5

	bpDateLayout = "2006-01-02 15:04:05"
)

// Offsets of the scalar fields of a realtime frame
const (
	offSn              = 9
	offTime            = 13
	offMillis          = 17
	offResp            = 19
	offAbdominal       = 69
	offEcg             = 119
	offX               = 371
	offY               = 403
	offZ               = 435
	offSpo2Wave        = 467
	offTemperatureTime = 517
	offParamHigh       = 521
	offSpo2Signal      = 522
	offRespRatio       = 523
	offAbdominalRatio  = 524
	offTemperature     = 525
	offSpo2            = 526
	offDeviceState     = 527
	offBatteryAlarm    = 528
	offSwitches        = 529
	offBatteryTag      = 530
	offBatteryLevel    = 531
	offWifi            = 532
	offPulseRate       = 533
	offApMac           = 534
	offVersion         = 539
	offBatteryBars     = 541
)

var (
	// parameter high bits
	fieldPulseHigh       = numeric.Bit(offParamHigh, 1)
	fieldTemperatureHigh = numeric.Bit(offParamHigh, 2)
	fieldOverload        = numeric.Bit(offParamHigh, 5)
	fieldRespConn        = numeric.Bit(offParamHigh, 6)
	fieldAbdominalConn   = numeric.Bit(offParamHigh, 7)

	// device state
	fieldEcgConn         = numeric.Bit(offDeviceState, 0)
	fieldSpo2ProbeConn   = numeric.Bit(offDeviceState, 1)
	fieldTemperatureConn = numeric.Bit(offDeviceState, 2)
	fieldSpo2Conn        = numeric.Bit(offDeviceState, 3)
	fieldElecMmhgConn    = numeric.Bit(offDeviceState, 4)
	fieldFlowMeterConn   = numeric.Bit(offDeviceState, 5)
	fieldCalibrationTime = numeric.Bit(offDeviceState, 6)
	fieldPowerOn         = numeric.Bit(offDeviceState, 7)

	// battery alarms
	fieldOuterBatteryAlarm = numeric.Bit(offBatteryAlarm, 0)
	fieldThermometerAlarm  = numeric.Bit(offBatteryAlarm, 1)
	fieldOximeterAlarm     = numeric.Bit(offBatteryAlarm, 2)
	fieldElecMmhgAlarm     = numeric.Bit(offBatteryAlarm, 3)
	fieldFlowMeterAlarm    = numeric.Bit(offBatteryAlarm, 4)

	// switches
	fieldBluetoothConnSw   = numeric.Bit(offSwitches, 0)
	fieldBatteryLowLightSw = numeric.Bit(offSwitches, 1)
	fieldBatteryLowShockSw = numeric.Bit(offSwitches, 2)
	fieldBluetoothLightSw  = numeric.Bit(offSwitches, 3)
	fieldTemperatureSw     = numeric.Bit(offSwitches, 4)
	fieldSpo2Sw            = numeric.Bit(offSwitches, 5)
	fieldElecMmhgSw        = numeric.Bit(offSwitches, 6)
	fieldFlowMeterSw       = numeric.Bit(offSwitches, 7)

	// firmware version
	fieldVersionHigh   = numeric.BitField{Offset: offVersion, Shift: 5, Width: 3}
	fieldVersionMiddle = numeric.BitField{Offset: offVersion, Shift: 2, Width: 3}
	fieldVersionLow    = numeric.BitField{Offset: offVersion, Shift: 0, Width: 2}
)

// IsRealtimeType reports whether frames of type t carry a battery reading.
func IsRealtimeType(t uint8) bool {
	switch layers.PacketType(t) {
	case layers.PacketTypeRealtime, layers.PacketTypeFeedbackPacketRetry, layers.PacketTypeRealtimeFlowMeter:
		return true
	}
	return false
}

// HasFlowMeter reports whether frames of type t carry the flow meter block.
func HasFlowMeter(t uint8) bool {
	return layers.PacketType(t) == layers.PacketTypeFlowMeterExtended ||
		layers.PacketType(t) == layers.PacketTypeRealtimeFlowMeter
}

// Parser decodes verified frames into records. A single Parser may be
// shared by many connections, its only state is the battery cache.
type Parser struct {
	Battery *BatteryCache
	now     func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		Battery: NewBatteryCache(),
		now:     time.Now,
	}
}

// SetClock replaces the clock used for blood pressure frames without a
// device time.
func (p *Parser) SetClock(now func() time.Time) {
	p.now = now
}

// Parse decodes a complete realtime frame. deviceID may be empty, the id is
// then taken from the frame.
func (p *Parser) Parse(data []byte, deviceID string) (*HardwarePacket, error) {
	if len(data) < RealtimeFrameSize {
		return nil, layers.ErrFrameTooShort{Length: len(data), Min: RealtimeFrameSize}
	}
	typ := data[8]
	flowMeter := HasFlowMeter(typ)
	if flowMeter && len(data) < FlowMeterFrameSize {
		return nil, layers.ErrFrameTooShort{Length: len(data), Min: FlowMeterFrameSize}
	}
	if deviceID == "" {
		deviceID = layers.FrameDeviceID(data)
	}

	hp := &HardwarePacket{
		PacketLength: numeric.U16(data, 2),
		DeviceID:     deviceID,
		DeviceCode:   numeric.U32(data, 4),
		Type:         typ,
		TypeName:     layers.FindPacketType(typ).Name,
		Realtime:     IsRealtimeType(typ),
		PacketSn:     numeric.U32(data, offSn),
		Time:         numeric.U32(data, offTime),
		Millis:       numeric.U16(data, offMillis),
	}

	hp.RawRespList = parseU16Array(data, offResp, offAbdominal)
	hp.RawAbdominalRespList = parseU16Array(data, offAbdominal, offEcg)
	hp.EcgList = parseWave(data, offEcg, 4, 50)
	hp.XList = parseWave(data, offX, 1, 25)
	hp.YList = parseWave(data, offY, 1, 25)
	hp.ZList = parseWave(data, offZ, 1, 25)
	hp.Spo2List = make([]int, offTemperatureTime-offSpo2Wave)
	for i := range hp.Spo2List {
		hp.Spo2List[i] = int(data[offSpo2Wave+i] & 0x7F)
	}
	if flowMeter {
		hp.FlowMeter = parseFlowMeter(data)
	}

	hp.TemperatureTime = numeric.U32(data, offTemperatureTime)
	hp.DeviceOverload = fieldOverload.Read(data)
	hp.RespConnState = fieldRespConn.Read(data)
	hp.AbdominalConnState = fieldAbdominalConn.Read(data)
	hp.Spo2Signal = int(data[offSpo2Signal])
	hp.RespRatio = int(data[offRespRatio])
	hp.AbdominalRatio = int(data[offAbdominalRatio])
	hp.Temperature = fieldTemperatureHigh.Read(data)<<8 | int(data[offTemperature])
	hp.Spo2 = int(data[offSpo2])

	hp.EcgConnState = fieldEcgConn.Read(data)
	hp.Spo2ProbeConnState = fieldSpo2ProbeConn.Read(data)
	hp.TemperatureConnState = fieldTemperatureConn.Read(data)
	hp.Spo2ConnState = fieldSpo2Conn.Read(data)
	hp.ElecMmhgConnState = fieldElecMmhgConn.Read(data)
	hp.FlowMeterConnState = fieldFlowMeterConn.Read(data)
	hp.CalibrationTime = fieldCalibrationTime.Read(data)
	hp.PowerOn = fieldPowerOn.Read(data)

	hp.DeviceOuterBatteryAlarm = fieldOuterBatteryAlarm.Read(data)
	hp.TemperatureBatteryAlarm = fieldThermometerAlarm.Read(data)
	hp.Spo2BatteryAlarm = fieldOximeterAlarm.Read(data)
	hp.ElecMmhgBatteryAlarm = fieldElecMmhgAlarm.Read(data)
	hp.FlowMeterBatteryAlarm = fieldFlowMeterAlarm.Read(data)

	hp.BluetoothConnSwitch = fieldBluetoothConnSw.Read(data)
	hp.BatteryLowLightSwitch = fieldBatteryLowLightSw.Read(data)
	hp.BatteryLowShockSwitch = fieldBatteryLowShockSw.Read(data)
	hp.BluetoothLightSwitch = fieldBluetoothLightSw.Read(data)
	hp.TemperatureSwitch = fieldTemperatureSw.Read(data)
	hp.Spo2Switch = fieldSpo2Sw.Read(data)
	hp.ElecMmhgSwitch = fieldElecMmhgSw.Read(data)
	hp.FlowMeterSwitch = fieldFlowMeterSw.Read(data)

	if hp.Realtime {
		p.updateBattery(deviceID, data[offBatteryTag], int(data[offBatteryLevel]))
	}
	levels := p.Battery.Levels(deviceID)
	hp.DeviceBattery = levels.CollectorInner
	hp.DeviceOuterBattery = levels.CollectorOuter
	hp.TemperatureBattery = levels.Thermometer
	hp.Spo2Battery = levels.Oximeter
	hp.ElecMmhgBattery = levels.Sphygmomanometer
	hp.FlowMeterBattery = levels.FlowMeter

	hp.WifiSignal = -int(data[offWifi])
	hp.PulseRate = fieldPulseHigh.Read(data)<<8 | int(data[offPulseRate])
	hp.ApMac = numeric.BytesToHex(data[offApMac : offApMac+4])
	hp.BatteryLevel = int(data[offBatteryBars])

	if data[offVersion] != 0 {
		high := fieldVersionHigh.Read(data)
		middle := fieldVersionMiddle.Read(data)
		low := fieldVersionLow.Read(data)
		hp.VersionCode = high<<5 | middle<<2 | low
		hp.VersionName = fmt.Sprintf("%d.%d.%d", high, middle, low)
	}
	return hp, nil
}

func (p *Parser) updateBattery(deviceID string, tag uint8, raw int) {
	t := OfBatteryType(tag)
	if t.IsDeviceBattery() {
		p.Battery.Put(deviceID, t, CalibrateDeviceBattery(raw))
		return
	}
	p.Battery.Put(deviceID, t, raw)
}

// ParseBp decodes a blood_pressure_data frame.
func (p *Parser) ParseBp(deviceID string, data []byte) (*BpPacket, error) {
	min := layers.CollectorMinFrameSize + layers.BpLayerSize
	if len(data) < min {
		return nil, layers.ErrFrameTooShort{Length: len(data), Min: min}
	}
	if deviceID == "" {
		deviceID = layers.FrameDeviceID(data)
	}
	layer := &layers.BpLayer{}
	err := layer.DecodeFromBytes(data[layers.CollectorHeaderSize:len(data)-1], gopacket.NilDecodeFeedback)
	if err != nil {
		return nil, err
	}

	ts := int64(layer.Time) * 1000
	if ts == 0 {
		ts = p.now().UnixNano() / int64(time.Millisecond)
	}
	return &BpPacket{
		DeviceID:  deviceID,
		Err:       int(layer.Err),
		ErrMsg:    BpErrMessage(int(layer.Err)),
		Time:      ts,
		Date:      time.Unix(0, ts*int64(time.Millisecond)).Format(bpDateLayout),
		Systolic:  int(layer.Systolic),
		Diastolic: int(layer.Diastolic),
		Mean:      int(layer.Mean),
		Pulse:     int(layer.Pulse),
	}, nil
}

// ConvertToUdp rebuilds a realtime frame out of raw body bytes, the bytes
// that follow the type byte. deviceID is 8 hex digits or empty for a zero
// id. A positive packetSn or millis overrides the packet number or the
// device time held by the body. The body is cut or zero padded to fit.
func (p *Parser) ConvertToUdp(body []byte, deviceID string, millis int64, packetSn uint32) ([]byte, error) {
	var code int64
	if deviceID != "" {
		if len(deviceID) != 8 {
			return nil, numeric.ErrMalformedHex{Hex: deviceID}
		}
		var err error
		if code, err = numeric.HexToNumber(deviceID, true, false); err != nil {
			return nil, err
		}
	}

	payload := make([]byte, RealtimeFrameSize-layers.CollectorMinFrameSize)
	copy(payload, body)
	if packetSn > 0 {
		copy(payload[offSn-layers.CollectorHeaderSize:], numeric.NumberToBytes(int64(packetSn), 32, true))
	}
	if millis > 0 {
		copy(payload[offTime-layers.CollectorHeaderSize:], numeric.NumberToBytes(millis/1000, 32, true))
		copy(payload[offMillis-layers.CollectorHeaderSize:], numeric.NumberToBytes(millis%1000, 16, true))
	}
	return layers.NewFrame(uint32(code), layers.PacketTypeRealtime, payload)
}

func parseU16Array(data []byte, start, end int) []int {
	out := make([]int, (end-start)/2)
	for i := range out {
		out[i] = numeric.U16(data, start+i*2)
	}
	return out
}

// parseWave unpacks groups of perGroup samples. Each group starts with one
// high byte per four samples, two bits per sample from the low bits up,
// followed by one low byte per sample.
func parseWave(data []byte, start, groups, perGroup int) []int {
	highLen := (perGroup + 3) / 4
	stride := perGroup + highLen
	wave := make([]int, groups*perGroup)
	for g := 0; g < groups; g++ {
		base := start + g*stride
		for i := 0; i < perGroup; i++ {
			high := int(data[base+i/4]>>uint((i%4)*2)) & 0b11
			low := int(data[base+highLen+i])
			wave[g*perGroup+i] = high<<8 | low
		}
	}
	return wave
}

func parseFlowMeter(data []byte) *FlowMeterBlock {
	fm := &FlowMeterBlock{
		Breath:               make([]int, FlowMeterSamples),
		RealtimeFlowVelocity: make([]int, FlowMeterSamples),
		RealtimeVolume:       make([]int, FlowMeterSamples),
	}
	for i := 0; i < FlowMeterSamples; i++ {
		j := flowMeterOffset + i*flowMeterStride
		fm.Breath[i] = int(data[j])
		fm.RealtimeFlowVelocity[i] = numeric.U16(data, j+1)
		fm.RealtimeVolume[i] = numeric.U16(data, j+3)
	}
	return fm
}
