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
	"bytes"
	"errors"
	"testing"

	"github.com/google/gopacket"

	"github.com/vitalwave/go-collector/pkg/collector"
)

func patternFrame() []byte {
	x := make([]byte, FrameSize)
	for i := range x {
		x[i] = byte(i*7 + 3)
	}
	x[0], x[1] = 0x12, 0x26
	x[2] = TypeRealtime
	x[3], x[4] = FrameSize>>8, FrameSize&0xFF
	return x
}

// connDropped are the bits of the conn alarm byte a record cannot carry:
// bit 1 is never written, bits 6 and 7 are unassigned.
const connDropped = 0b11000010

// sameExceptConn compares two frames and expects the conn alarm byte of got
// to have lost connDropped.
func sameExceptConn(t *testing.T, got, want []byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		w := want[i]
		if i == offConnAlarm {
			w &^= connDropped
		}
		if got[i] != w {
			t.Errorf("byte %d: got %02X, want %02X", i, got[i], w)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	x := patternFrame()
	p, err := Parse(x)
	if err != nil {
		t.Fatal(err)
	}
	if p.ConnAbnormal != x[offConnAlarm] || x[offConnAlarm]&connDropped == 0 {
		t.Fatalf("conn alarms %08b of %08b", p.ConnAbnormal, x[offConnAlarm])
	}
	hp, bp := ToHardwarePacket(p)
	got := Convert(hp, bp)
	sameExceptConn(t, got, x)
	if got[offConnAlarm]&connDropped != 0 {
		t.Errorf("conn alarms %08b", got[offConnAlarm])
	}
}

func TestRoundTripWithoutBp(t *testing.T) {
	x := patternFrame()
	for i := offBpTime; i < offVolume; i++ {
		x[i] = 0
	}
	p, err := Parse(x)
	if err != nil {
		t.Fatal(err)
	}
	hp, bp := ToHardwarePacket(p)
	if bp != nil {
		t.Fatalf("expected no blood pressure, got %+v", bp)
	}
	sameExceptConn(t, Convert(hp, bp), x)
}

func TestParseFields(t *testing.T) {
	x := patternFrame()
	x[offDeviceID], x[offDeviceID+1], x[offDeviceID+2], x[offDeviceID+3] = 0x0A, 0x0B, 0x0C, 0x0D
	x[offHr], x[offHr+1] = 0x00, 72
	x[offRr] = 18
	x[offTemperature], x[offTemperature+1] = 0x01, 0x6E
	x[offSpo2Battery] = 90
	p, err := Parse(x)
	if err != nil {
		t.Fatal(err)
	}
	if p.Head != "1226" || p.PackageType != TypeRealtime || p.Length != FrameSize {
		t.Errorf("header: %s %d %d", p.Head, p.PackageType, p.Length)
	}
	if p.DeviceID != "0A0B0C0D" {
		t.Errorf("device id: %s", p.DeviceID)
	}
	if p.Hr != 72 || p.Rr != 18 || p.Temperature != 366 || p.Spo2Battery != 90 {
		t.Errorf("vitals: hr %d rr %d temperature %d battery %d", p.Hr, p.Rr, p.Temperature, p.Spo2Battery)
	}
	if len(p.RespList) != RespSamples || len(p.EcgList) != EcgSamples ||
		len(p.Spo2List) != Spo2Samples || len(p.TidalVolume) != TidalVolumeSamples {
		t.Errorf("sample counts: %d %d %d %d", len(p.RespList), len(p.EcgList), len(p.Spo2List), len(p.TidalVolume))
	}
	if p.Spo2List[0] != int(x[offSpo2Wave]) {
		t.Errorf("spo2 wave: %d", p.Spo2List[0])
	}
	if p.EcgList[1] != int(x[offEcg+2])<<8|int(x[offEcg+3]) {
		t.Errorf("ecg: %d", p.EcgList[1])
	}
}

func TestParseTooShort(t *testing.T) {
	_, err := Parse(make([]byte, FrameSize-1))
	var short ErrConsoleFrameTooShort
	if !errors.As(err, &short) {
		t.Fatalf("expected ErrConsoleFrameTooShort, got %v", err)
	}
	if short.Length != FrameSize-1 {
		t.Errorf("length %d", short.Length)
	}
}

func TestConvert(t *testing.T) {
	hp := &collector.HardwarePacket{
		OrderNum:                0x1FF,
		DeviceID:                "0A0B0C0D",
		PacketSn:                9,
		Hr:                      -1,
		Rr:                      20,
		WifiSignal:              -60,
		Spo2ConnState:           1,
		Spo2Battery:             77,
		EcgConnState:            1,
		FlowMeterConnState:      1,
		HrAlarm:                 2,
		TemperatureAlarm:        1,
		Spo2BatteryAlarm:        1,
		DeviceOuterBatteryAlarm: 1,
		RespList:                []int{1, 2, 3},
		EcgList:                 make([]int, 300),
	}
	bp := &collector.BpPacket{Time: 1700000000123, Systolic: 120, Diastolic: 80}
	x := Convert(hp, bp)
	if len(x) != FrameSize {
		t.Fatalf("got %d bytes", len(x))
	}
	tests := []struct {
		name string
		off  int
		want []byte
	}{
		{"head", offHead, []byte{0x12, 0x26, 0x01, 0x02, 0x8C}},
		{"order number", offOrderNum, []byte{0xFF}},
		{"device id", offDeviceID, []byte{0x0A, 0x0B, 0x0C, 0x0D}},
		{"sn", offSn, []byte{0, 0, 0, 9}},
		{"resp", offResp, []byte{0, 1, 0, 2, 0, 3, 0, 0}},
		{"negative hr", offHr, []byte{0, 0}},
		{"rr", offRr, []byte{20}},
		{"conn alarms", offConnAlarm, []byte{0b00100001}},
		{"signal alarms", offSignalAlarm, []byte{0b01000010}},
		{"other alarms", offOtherAlarm, []byte{0b01000100}},
		{"wifi", offWifi, []byte{60}},
		{"bp time", offBpTime, []byte{0x65, 0x53, 0xF1, 0x00}},
		{"systolic", offSystolic, []byte{0, 120, 0, 80}},
		{"spo2 battery", offSpo2Battery, []byte{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x[tt.off : tt.off+len(tt.want)]
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % X, want % X", got, tt.want)
			}
		})
	}
}

func TestConvertNil(t *testing.T) {
	x := Convert(nil, nil)
	if len(x) != FrameSize {
		t.Fatalf("got %d bytes", len(x))
	}
	if x[0] != 0x12 || x[1] != 0x26 {
		t.Errorf("head % X", x[:2])
	}
	for i := offOrderNum; i < FrameSize; i++ {
		if x[i] != 0 {
			t.Fatalf("byte %d is %02X", i, x[i])
		}
	}
}

func TestSpo2BatteryWrittenWhenConnected(t *testing.T) {
	x := Convert(&collector.HardwarePacket{Spo2Battery: 55}, nil)
	if x[offSpo2Battery] != 55 {
		t.Errorf("got %d", x[offSpo2Battery])
	}
}

func TestAlarmHelpers(t *testing.T) {
	p := &Packet{
		ConnAbnormal:   0b00000011,
		SignalAbnormal: 0b10_01_11_00,
		OtherAbnormal:  0b01_00_10_00,
	}
	if !p.IsEcgFallOff() || !p.IsSpo2FallOff() {
		t.Error("fall off")
	}
	if p.HrAlarm() != 0 || p.RrAlarm() != 3 || p.PulseRateAlarm() != 1 || p.TemperatureAlarm() != 2 {
		t.Errorf("signal alarms %d %d %d %d", p.HrAlarm(), p.RrAlarm(), p.PulseRateAlarm(), p.TemperatureAlarm())
	}
	if p.IsSpo2Alarm() || !p.IsDeviceOutBatteryAlarm() || p.IsThermometerBatteryAlarm() || !p.IsSpo2BatteryAlarm() {
		t.Error("other alarms")
	}
}

func TestConsoleLayer(t *testing.T) {
	x := patternFrame()
	packet := gopacket.NewPacket(append(x, 0xEE), ConsoleLayerType, gopacket.Default)
	if err := packet.ErrorLayer(); err != nil {
		t.Fatal(err.Error())
	}
	cl, ok := packet.Layer(ConsoleLayerType).(*ConsoleLayer)
	if !ok {
		t.Fatal("no console layer")
	}
	if cl.PackageSn != uint32(x[offSn])<<24|uint32(x[offSn+1])<<16|uint32(x[offSn+2])<<8|uint32(x[offSn+3]) {
		t.Errorf("sn %d", cl.PackageSn)
	}
	if !bytes.Equal(cl.LayerPayload(), []byte{0xEE}) {
		t.Errorf("payload % X", cl.LayerPayload())
	}
}

func TestGestures(t *testing.T) {
	tests := []struct {
		in     string
		want   Gesture
		lying  bool
		moving bool
	}{
		{"upright", GestureUpright, false, false},
		{"PRONE", GestureProne, true, false},
		{"right side", GestureRight, true, false},
		{"exercis", GestureExercise, false, true},
		{"", GestureUnknown, false, false},
		{"flying", GestureUnknown, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g := OfGesture(tt.in)
			if g != tt.want {
				t.Fatalf("got %v, want %v", g, tt.want)
			}
			if g.IsLying() != tt.lying || g.IsMoving() != tt.moving {
				t.Errorf("lying %v moving %v", g.IsLying(), g.IsMoving())
			}
			if FindGesture(g.Code) != g {
				t.Errorf("FindGesture(%d) = %v", g.Code, FindGesture(g.Code))
			}
		})
	}
}

func TestForwardRecord(t *testing.T) {
	hp := &collector.HardwarePacket{
		RawRespList:          []int{1},
		RawAbdominalRespList: []int{2},
		AbdominalList:        []int{3},
	}
	rec := ForwardRecord(hp, 12)
	if rec.OrderNum != 12 || rec.RespList[0] != 1 || rec.AbdominalList[0] != 3 {
		t.Errorf("got order %d resp %v abdominal %v", rec.OrderNum, rec.RespList, rec.AbdominalList)
	}
	if hp.OrderNum != 0 || hp.RespList != nil {
		t.Error("record modified")
	}
	hp.OrderNum = 4
	if ForwardRecord(hp, 12).OrderNum != 4 {
		t.Error("order number overridden")
	}
}
