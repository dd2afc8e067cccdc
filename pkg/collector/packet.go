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

// FlowMeterBlock holds the 25 flow meter samples of a realtime2 frame.
type FlowMeterBlock struct {
	// Breath is 1 for blowing and 0 for inhaling
	Breath               []int `json:"breath"`
	RealtimeFlowVelocity []int `json:"realtimeFlowVelocity"`
	RealtimeVolume       []int `json:"realtimeVolume"`
}

// HardwarePacket is one decoded realtime frame. The fields after
// BatteryLevel are filled by analysis stages downstream of the decoder and
// stay zero here, the console transcoder reads them.
type HardwarePacket struct {
	PersonID string `json:"personId,omitempty"`
	OrgID    string `json:"orgId,omitempty"`
	OrderNum int    `json:"orderNum"`

	PacketLength int    `json:"packetLength"`
	Type         uint8  `json:"type"`
	TypeName     string `json:"typeName"`
	DeviceID     string `json:"deviceId"`
	DeviceCode   uint32 `json:"deviceCode"`
	VersionName  string `json:"versionName,omitempty"`
	VersionCode  int    `json:"versionCode"`
	Realtime     bool   `json:"realtime"`
	PacketSn     uint32 `json:"packetSn"`
	// Time is the device clock in seconds, Millis its sub-second part
	Time   uint32 `json:"time"`
	Millis int    `json:"millis"`

	EcgList              []int `json:"ecgList"`
	XList                []int `json:"xList"`
	YList                []int `json:"yList"`
	ZList                []int `json:"zList"`
	RawRespList          []int `json:"rawRespList"`
	RawAbdominalRespList []int `json:"rawAbdominalRespList"`
	Spo2List             []int `json:"spo2List"`

	TemperatureTime    uint32 `json:"temperatureTime"`
	Temperature        int    `json:"temperature"`
	PulseRate          int    `json:"pulseRate"`
	DeviceOverload     int    `json:"deviceOverload"`
	RespConnState      int    `json:"respConnState"`
	AbdominalConnState int    `json:"abdominalConnState"`
	Spo2Signal         int    `json:"spo2Signal"`
	RespRatio          int    `json:"respRatio"`
	AbdominalRatio     int    `json:"abdominalRatio"`
	Spo2               int    `json:"spo2"`

	// Device state, 0 is normal
	EcgConnState         int `json:"ecgConnState"`
	Spo2ProbeConnState   int `json:"spo2ProbeConnState"`
	TemperatureConnState int `json:"temperatureConnState"`
	Spo2ConnState        int `json:"spo2ConnState"`
	ElecMmhgConnState    int `json:"elecMmhgConnState"`
	FlowMeterConnState   int `json:"flowMeterConnState"`
	CalibrationTime      int `json:"calibrationTime"`
	PowerOn              int `json:"powerOn"`

	// Battery alarms, 1 is low
	DeviceOuterBatteryAlarm int `json:"deviceOuterBatteryAlarm"`
	TemperatureBatteryAlarm int `json:"temperatureBatteryAlarm"`
	Spo2BatteryAlarm        int `json:"spo2BatteryAlarm"`
	ElecMmhgBatteryAlarm    int `json:"elecMmhgBatteryAlarm"`
	FlowMeterBatteryAlarm   int `json:"flowMeterBatteryAlarm"`

	// Switches, 1 is on
	BluetoothConnSwitch   int `json:"bluetoothConnSwitch"`
	BatteryLowLightSwitch int `json:"batteryLowLightSwitch"`
	BatteryLowShockSwitch int `json:"batteryLowShockSwitch"`
	BluetoothLightSwitch  int `json:"bluetoothLightSwitch"`
	TemperatureSwitch     int `json:"temperatureSwitch"`
	Spo2Switch            int `json:"spo2Switch"`
	ElecMmhgSwitch        int `json:"elecMmhgSwitch"`
	FlowMeterSwitch       int `json:"flowMeterSwitch"`

	DeviceBattery      int `json:"deviceBattery"`
	DeviceOuterBattery int `json:"deviceOuterBattery"`
	TemperatureBattery int `json:"temperatureBattery"`
	Spo2Battery        int `json:"spo2Battery"`
	ElecMmhgBattery    int `json:"elecMmhgBattery"`
	FlowMeterBattery   int `json:"flowMeterBattery"`

	WifiSignal   int             `json:"wifiSignal"`
	ApMac        string          `json:"apMac"`
	FlowMeter    *FlowMeterBlock `json:"flowMeter,omitempty"`
	BatteryLevel int             `json:"batteryLevel"`

	Hr               int   `json:"hr"`
	Rr               int   `json:"rr"`
	Gesture          int   `json:"gesture"`
	Step             int   `json:"step"`
	Energy           int   `json:"energy"`
	Fall             int   `json:"fall"`
	SportsTrend      int   `json:"sportsTrend"`
	Volume           int   `json:"volume"`
	HrAlarm          int   `json:"hrAlarm"`
	RrAlarm          int   `json:"rrAlarm"`
	PulseRateAlarm   int   `json:"pulseRateAlarm"`
	TemperatureAlarm int   `json:"temperatureAlarm"`
	Spo2Alarm        int   `json:"spo2Alarm"`
	RespList         []int `json:"respList,omitempty"`
	AbdominalList    []int `json:"abdominalList,omitempty"`
	ArrhythmiaType   int   `json:"arrhythmiaType"`
	Calibration      int   `json:"calibration"`
	EiRatio          int   `json:"eiRatio"`
	CaRatio          int   `json:"caRatio"`
	TidalVolume      []int `json:"tidalVolume,omitempty"`
	Acceleration     int   `json:"acceleration"`
	Apnea            int   `json:"apnea"`
	Circle           int   `json:"circle"`
}

// BpPacket is one blood pressure measurement.
type BpPacket struct {
	DeviceID string `json:"deviceId"`
	Err      int    `json:"err"`
	ErrMsg   string `json:"errMsg,omitempty"`
	// Time in milliseconds since the epoch
	Time      int64  `json:"time"`
	Date      string `json:"date"`
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Mean      int    `json:"mean"`
	Pulse     int    `json:"pulse"`
}

var bpErrMessages = map[int]string{
	1: "Sensor signal abnormal",
	2: "No measurement result",
	3: "Measurement result abnormal",
	4: "Cuff too loose or leaking",
	5: "Cuff too tight or airway blocked",
	6: "Severe pressure interference during measurement",
	7: "Pressure over 300",
	8: "Failed to connect to the sphygmomanometer",
}

// BpErrMessage returns the message of a blood pressure error code. Code 0
// is success and has none.
func BpErrMessage(code int) string {
	return bpErrMessages[code]
}
