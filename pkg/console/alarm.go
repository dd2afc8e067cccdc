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

// IsEcgFallOff reports a detached ECG lead.
func (p *Packet) IsEcgFallOff() bool {
	return connEcg.Of(p.ConnAbnormal) > 0
}

// IsSpo2FallOff reads bit 1 of the connection byte. Convert always writes
// it as 0, so only frames from other producers can raise it.
func (p *Packet) IsSpo2FallOff() bool {
	return connSpo2.Of(p.ConnAbnormal) > 0
}

func (p *Packet) HrAlarm() int {
	return signalHr.Of(p.SignalAbnormal)
}

func (p *Packet) RrAlarm() int {
	return signalRr.Of(p.SignalAbnormal)
}

func (p *Packet) PulseRateAlarm() int {
	return signalPulseRate.Of(p.SignalAbnormal)
}

func (p *Packet) TemperatureAlarm() int {
	return signalTemperature.Of(p.SignalAbnormal)
}

func (p *Packet) IsSpo2Alarm() bool {
	return otherSpo2.Of(p.OtherAbnormal) > 0
}

func (p *Packet) IsDeviceOutBatteryAlarm() bool {
	return otherOuterBattery.Of(p.OtherAbnormal) > 0
}

func (p *Packet) IsThermometerBatteryAlarm() bool {
	return otherThermometerBattery.Of(p.OtherAbnormal) > 0
}

func (p *Packet) IsSpo2BatteryAlarm() bool {
	return otherOximeterBattery.Of(p.OtherAbnormal) > 0
}
