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
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func init() {
	initPacketTypes()
	initPacketTypeMetadata()
}

// PacketType is the type byte at offset 8 of a collector frame.
type PacketType uint8

const (
	PacketTypeUnknown              PacketType = 0x00
	PacketTypeRegister             PacketType = 0x01
	PacketTypeRealtime             PacketType = 0x03
	PacketTypeFeedbackRealtime     PacketType = 0x04
	PacketTypePacketRetry          PacketType = 0x08
	PacketTypeFeedbackSetTime      PacketType = 0x09
	PacketTypeFeedbackDeleteLog    PacketType = 0x0A
	PacketTypeFeedbackSwitchStatus PacketType = 0x0B
	PacketTypeUnregister           PacketType = 0x0C
	PacketTypeFeedbackBluetooth    PacketType = 0x0D
	PacketTypeBpMeasure            PacketType = 0x0E
	PacketTypeBpData               PacketType = 0x0F
	PacketTypeQueryFiles           PacketType = 0x10
	PacketTypeCentralizeRetry      PacketType = 0x11
	PacketTypeGetDeviceInfo        PacketType = 0x13
	PacketTypeSetAp                PacketType = 0x14
	PacketTypeGetAp                PacketType = 0x15
	PacketTypeFeedbackUpgrade      PacketType = 0x20
	PacketTypeFeedbackFastUpload   PacketType = 0x43
	PacketTypeFeedbackPacketRetry  PacketType = 0x83
	PacketTypeChe1A                PacketType = 0xC3
	PacketTypeSimulate             PacketType = 0xEE
	PacketTypeRealtimeFlowMeter    PacketType = 0xF3
)

// PacketTypeFlowMeterExtended is the slot 0 type of a fragment set that
// carries a fourth, flow meter, fragment.
const PacketTypeFlowMeterExtended = PacketTypeFeedbackPacketRetry

// PacketTypeMeta describes one packet type. Up and Down give the direction
// relative to the collector, Data marks waveform carrying frames.
type PacketTypeMeta struct {
	Code        PacketType `json:"code"`
	Name        string     `json:"name"`
	Up          bool       `json:"up"`
	Down        bool       `json:"down"`
	Data        bool       `json:"data"`
	Realtime    bool       `json:"realtime"`
	Description string     `json:"description"`
}

func (m PacketTypeMeta) String() string {
	return fmt.Sprintf("%s(0x%02X)", m.Name, uint8(m.Code))
}

// UnknownPacketType is what lookups return for codes and names not in the
// catalog.
var UnknownPacketType = PacketTypeMeta{
	Code:        PacketTypeUnknown,
	Name:        "unknown",
	Description: "Unknown packet type",
}

var packetTypes = []PacketTypeMeta{
	{PacketTypeRegister, "register", true, false, false, false, "Register"},
	{PacketTypeRealtime, "realtime", true, false, true, true, "Realtime data"},
	{PacketTypeRealtimeFlowMeter, "realtime2", true, false, true, true, "Realtime data with flow meter samples"},
	{PacketTypePacketRetry, "packet_retry", false, true, true, false, "Packet retry command"},
	{PacketTypeQueryFiles, "query_files", true, true, false, false, "File name query"},
	{PacketTypeCentralizeRetry, "centralize_packet_retry", false, true, false, false, "Centralized retry command"},
	{PacketTypeFeedbackFastUpload, "feedback_fast_upload", true, false, true, false, "Centralized upload response"},
	{PacketTypeFeedbackPacketRetry, "feedback_packet_retry", true, false, true, false, "Packet retry response"},
	{PacketTypeChe1A, "che_1a", true, false, true, false, "Centralized retry request"},
	{PacketTypeFeedbackSetTime, "feedback_set_time", true, false, false, false, "Set time response"},
	{PacketTypeFeedbackDeleteLog, "feedback_delete_log", true, false, false, false, "Delete log response"},
	{PacketTypeFeedbackSwitchStatus, "feedback_switch_status", true, false, false, false, "Switch status"},
	{PacketTypeUnregister, "unregister", true, false, false, false, "Unregister response"},
	{PacketTypeFeedbackBluetooth, "feedback_bluetooth", true, false, false, false, "Bluetooth config response"},
	{PacketTypeFeedbackRealtime, "feedback_realtime", false, true, false, false, "Realtime data response"},
	{PacketTypeBpMeasure, "blood_pressure_measure", true, false, false, false, "Blood pressure measurement started"},
	{PacketTypeBpData, "blood_pressure_data", true, false, false, false, "Blood pressure data"},
	{PacketTypeFeedbackUpgrade, "feedback_upgrade", true, false, false, false, "Firmware upgrade"},
	{PacketTypeGetAp, "get_ap", false, true, false, false, "Get AP info"},
	{PacketTypeSetAp, "set_ap", false, true, false, false, "Set AP"},
	{PacketTypeGetDeviceInfo, "get_device_info", true, false, false, false, "Get device info"},
	{PacketTypeSimulate, "simulate", false, false, false, false, "Simulator"},
}

var packetTypeCatalog [256]PacketTypeMeta
var packetTypeByName map[string]PacketTypeMeta

func initPacketTypes() {
	for i := 0; i < 256; i++ {
		packetTypeCatalog[i] = UnknownPacketType
	}
	packetTypeByName = make(map[string]PacketTypeMeta, len(packetTypes))
	for _, t := range packetTypes {
		packetTypeCatalog[t.Code] = t
		packetTypeByName[t.Name] = t
	}
}

// FindPacketType never fails, unknown codes resolve to UnknownPacketType.
func FindPacketType(code uint8) PacketTypeMeta {
	return packetTypeCatalog[code]
}

func FindPacketTypeByName(name string) PacketTypeMeta {
	t, ok := packetTypeByName[name]
	if !ok {
		return UnknownPacketType
	}
	return t
}

// PacketTypes returns a copy of the catalog in declaration order.
func PacketTypes() []PacketTypeMeta {
	out := make([]PacketTypeMeta, len(packetTypes))
	copy(out, packetTypes)
	return out
}

// PacketTypeMetadata drives decoding of the collector frame payload.
// Blood pressure data has its own layer, everything else is opaque.
var PacketTypeMetadata [256]layers.EnumMetadata

func initPacketTypeMetadata() {
	for i := 0; i < 256; i++ {
		PacketTypeMetadata[i] = layers.EnumMetadata{
			DecodeWith: gopacket.DecodePayload,
			Name:       packetTypeCatalog[i].Name,
			LayerType:  gopacket.LayerTypePayload,
		}
	}
	PacketTypeMetadata[PacketTypeBpData] = layers.EnumMetadata{
		DecodeWith: gopacket.DecodeFunc(DecodeBpLayer),
		Name:       "BloodPressure",
		LayerType:  BpLayerType,
	}
}

func (t PacketType) Meta() PacketTypeMeta {
	return packetTypeCatalog[t]
}

// LayerType returns PacketTypeMetadata.LayerType
func (t PacketType) LayerType() gopacket.LayerType {
	return PacketTypeMetadata[t].LayerType
}

// Decode calls PacketTypeMetadata.DecodeWith's decoder
func (t PacketType) Decode(data []byte, p gopacket.PacketBuilder) error {
	return PacketTypeMetadata[t].DecodeWith.Decode(data, p)
}

// String returns the catalog name
func (t PacketType) String() string {
	return packetTypeCatalog[t].Name
}
