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

package console

import (
	"fmt"

	"github.com/google/gopacket"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/numeric"
)

// Alarm bits, relative to their alarm byte.
var (
	connEcg         = numeric.Bit(0, 0)
	connSpo2        = numeric.Bit(0, 1)
	connTemperature = numeric.Bit(0, 2)
	connSpo2Probe   = numeric.Bit(0, 3)
	connElecMmhg    = numeric.Bit(0, 4)
	connFlowMeter   = numeric.Bit(0, 5)

	signalHr          = numeric.BitField{Shift: 0, Width: 2}
	signalRr          = numeric.BitField{Shift: 2, Width: 2}
	signalPulseRate   = numeric.BitField{Shift: 4, Width: 2}
	signalTemperature = numeric.BitField{Shift: 6, Width: 2}

	otherSpo2               = numeric.BitField{Shift: 0, Width: 2}
	otherOuterBattery       = numeric.BitField{Shift: 2, Width: 2}
	otherThermometerBattery = numeric.BitField{Shift: 4, Width: 2}
	otherOximeterBattery    = numeric.BitField{Shift: 6, Width: 2}
)

// Convert builds the console frame of a realtime record and the latest
// blood pressure measurement. Either may be nil.
func Convert(hp *collector.HardwarePacket, bp *collector.BpPacket) []byte {
	p := FromHardwarePacket(hp, bp)
	buf := gopacket.NewSerializeBufferExpectedSize(FrameSize, 0)
	opts := gopacket.SerializeOptions{FixLengths: true}
	// Serialize only fails on malformed hex, FromHardwarePacket always
	// renders the device id itself.
	if err := gopacket.SerializeLayers(buf, opts, &ConsoleLayer{Packet: *p}); err != nil {
		return make([]byte, FrameSize)
	}
	return buf.Bytes()
}

// ForwardRecord returns a copy of hp ready for Convert. orderNum fills a
// missing order number and the raw breathing waves stand in for filtered
// ones nobody computed.
func ForwardRecord(hp *collector.HardwarePacket, orderNum int) *collector.HardwarePacket {
	rec := *hp
	if rec.OrderNum == 0 {
		rec.OrderNum = orderNum
	}
	if len(rec.RespList) == 0 {
		rec.RespList = rec.RawRespList
	}
	if len(rec.AbdominalList) == 0 {
		rec.AbdominalList = rec.RawAbdominalRespList
	}
	return &rec
}

// FromHardwarePacket maps a record onto the console fields.
func FromHardwarePacket(hp *collector.HardwarePacket, bp *collector.BpPacket) *Packet {
	if hp == nil {
		hp = &collector.HardwarePacket{}
	}
	deviceID := hp.DeviceCode
	if id, err := numeric.HexToNumber(hp.DeviceID, true, false); err == nil && len(hp.DeviceID) == 8 {
		deviceID = uint32(id)
	}

	var conn, signal, other [1]byte
	connEcg.Write(conn[:], hp.EcgConnState)
	connTemperature.Write(conn[:], hp.TemperatureConnState)
	connSpo2Probe.Write(conn[:], hp.Spo2ProbeConnState)
	connElecMmhg.Write(conn[:], hp.ElecMmhgConnState)
	connFlowMeter.Write(conn[:], hp.FlowMeterConnState)

	signalHr.Write(signal[:], hp.HrAlarm)
	signalRr.Write(signal[:], hp.RrAlarm)
	signalPulseRate.Write(signal[:], hp.PulseRateAlarm)
	signalTemperature.Write(signal[:], hp.TemperatureAlarm)

	otherSpo2.Write(other[:], hp.Spo2Alarm)
	otherOuterBattery.Write(other[:], hp.DeviceOuterBatteryAlarm)
	otherThermometerBattery.Write(other[:], hp.TemperatureBatteryAlarm)
	otherOximeterBattery.Write(other[:], hp.Spo2BatteryAlarm)

	hr := hp.Hr
	if hr < 0 {
		hr = 0
	}
	wifi := hp.WifiSignal
	if wifi < 0 {
		wifi = -wifi
	}

	p := &Packet{
		Head:           fmt.Sprintf("%04X", Head),
		PackageType:    TypeRealtime,
		Length:         FrameSize,
		OrderNum:       hp.OrderNum & 0xFF,
		DeviceID:       fmt.Sprintf("%08X", deviceID),
		PackageSn:      hp.PacketSn,
		RespList:       hp.RespList,
		AbdominalList:  hp.AbdominalList,
		EcgList:        hp.EcgList,
		Spo2List:       hp.Spo2List,
		Hr:             hr,
		Rr:             hp.Rr,
		PulseRate:      hp.PulseRate,
		Temperature:    hp.Temperature,
		Spo2:           hp.Spo2,
		OutBattery:     hp.DeviceOuterBattery,
		ConnAbnormal:   conn[0],
		SignalAbnormal: signal[0],
		OtherAbnormal:  other[0],
		Gesture:        hp.Gesture,
		WifiSignal:     wifi,
		Calibration:    hp.Calibration,
		EiRatio:        hp.EiRatio,
		CaRatio:        hp.CaRatio,
		TidalVolume:    hp.TidalVolume,
		ArrhythmiaType: hp.ArrhythmiaType,
		Acceleration:   hp.Acceleration,
		Step:           hp.Step,
		SportsTrend:    hp.SportsTrend,
		Time:           hp.Time,
		Volume:         hp.Volume,
		Circle:         hp.Circle,
	}
	if hp.Spo2ConnState == 0 {
		p.Spo2Battery = hp.Spo2Battery
	}
	if bp != nil {
		p.BpTime = uint32(bp.Time / 1000)
		p.Systolic = bp.Systolic
		p.Diastolic = bp.Diastolic
	}
	return p
}

// ToHardwarePacket maps a console frame back to a realtime record. The
// blood pressure result is nil when the frame carries none.
func ToHardwarePacket(p *Packet) (*collector.HardwarePacket, *collector.BpPacket) {
	deviceCode, _ := numeric.HexToNumber(p.DeviceID, true, false)
	t := layers.FindPacketType(uint8(layers.PacketTypeRealtime))
	hp := &collector.HardwarePacket{
		OrderNum:     p.OrderNum,
		PacketLength: collector.RealtimeFrameSize,
		Type:         uint8(t.Code),
		TypeName:     t.Name,
		DeviceID:     p.DeviceID,
		DeviceCode:   uint32(deviceCode),
		Realtime:     true,
		PacketSn:     p.PackageSn,
		Time:         p.Time,

		RespList:      p.RespList,
		AbdominalList: p.AbdominalList,
		EcgList:       p.EcgList,
		Spo2List:      p.Spo2List,
		TidalVolume:   p.TidalVolume,

		Hr:                 p.Hr,
		Rr:                 p.Rr,
		PulseRate:          p.PulseRate,
		Temperature:        p.Temperature,
		Spo2:               p.Spo2,
		DeviceOuterBattery: p.OutBattery,
		Spo2Battery:        p.Spo2Battery,

		EcgConnState:         connEcg.Of(p.ConnAbnormal),
		TemperatureConnState: connTemperature.Of(p.ConnAbnormal),
		Spo2ProbeConnState:   connSpo2Probe.Of(p.ConnAbnormal),
		ElecMmhgConnState:    connElecMmhg.Of(p.ConnAbnormal),
		FlowMeterConnState:   connFlowMeter.Of(p.ConnAbnormal),

		HrAlarm:          p.HrAlarm(),
		RrAlarm:          p.RrAlarm(),
		PulseRateAlarm:   p.PulseRateAlarm(),
		TemperatureAlarm: p.TemperatureAlarm(),

		Spo2Alarm:               otherSpo2.Of(p.OtherAbnormal),
		DeviceOuterBatteryAlarm: otherOuterBattery.Of(p.OtherAbnormal),
		TemperatureBatteryAlarm: otherThermometerBattery.Of(p.OtherAbnormal),
		Spo2BatteryAlarm:        otherOximeterBattery.Of(p.OtherAbnormal),

		Gesture:        p.Gesture,
		WifiSignal:     -p.WifiSignal,
		Calibration:    p.Calibration,
		EiRatio:        p.EiRatio,
		CaRatio:        p.CaRatio,
		ArrhythmiaType: p.ArrhythmiaType,
		Acceleration:   p.Acceleration,
		Step:           p.Step,
		SportsTrend:    p.SportsTrend,
		Volume:         p.Volume,
		Circle:         p.Circle,
	}
	if p.BpTime == 0 && p.Systolic == 0 && p.Diastolic == 0 {
		return hp, nil
	}
	bp := &collector.BpPacket{
		DeviceID:  p.DeviceID,
		Time:      int64(p.BpTime) * 1000,
		Systolic:  p.Systolic,
		Diastolic: p.Diastolic,
	}
	return hp, bp
}
