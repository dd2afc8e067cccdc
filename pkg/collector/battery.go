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
	"math"
	"sort"
	"sync"
)

// BatteryType is the accessory a battery level belongs to.
type BatteryType int

const (
	BatteryCollectorInner BatteryType = iota
	BatteryCollectorOuter
	BatteryThermometer
	BatteryOximeter
	BatterySphygmomanometer
	BatteryFlowMeter
)

var batteryTypeNames = [...]string{
	"collector_inner",
	"collector_outer",
	"thermometer",
	"oximeter",
	"sphygmomanometer",
	"flow_meter",
}

func (t BatteryType) String() string {
	if t < 0 || int(t) >= len(batteryTypeNames) {
		return "unknown"
	}
	return batteryTypeNames[t]
}

// OfBatteryType maps the battery tag byte. Unknown tags fall back to the
// inner collector battery.
func OfBatteryType(tag uint8) BatteryType {
	if int(tag) < len(batteryTypeNames) {
		return BatteryType(tag)
	}
	return BatteryCollectorInner
}

// IsDeviceBattery is true for the two collector batteries, which report
// a raw voltage reading instead of a percentage.
func (t BatteryType) IsDeviceBattery() bool {
	return t == BatteryCollectorInner || t == BatteryCollectorOuter
}

// CalibrateDeviceBattery converts a raw collector battery reading to a
// percentage. The reading maps linearly onto 3300..4050 mV.
func CalibrateDeviceBattery(raw int) int {
	power := int(math.Floor((float64((raw-15)*5+3200-3300) / float64(4050-3300)) * 100))
	if power > 100 {
		return 100
	}
	if power < 0 {
		return 0
	}
	return power
}

// BatteryLevels is the battery state of one device.
type BatteryLevels struct {
	CollectorInner   int `json:"collectorInner"`
	CollectorOuter   int `json:"collectorOuter"`
	Thermometer      int `json:"thermometer"`
	Oximeter         int `json:"oximeter"`
	Sphygmomanometer int `json:"sphygmomanometer"`
	FlowMeter        int `json:"flowMeter"`
}

// BatteryCache remembers the last level of every battery of every device
// for the life of the process. It is safe for concurrent use.
type BatteryCache struct {
	mu     sync.RWMutex
	levels map[string]map[BatteryType]int
}

func NewBatteryCache() *BatteryCache {
	return &BatteryCache{
		levels: make(map[string]map[BatteryType]int),
	}
}

func (c *BatteryCache) Put(deviceID string, t BatteryType, level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.levels[deviceID]
	if !ok {
		m = make(map[BatteryType]int)
		c.levels[deviceID] = m
	}
	m[t] = level
}

// Get returns the last level or zero when none was reported.
func (c *BatteryCache) Get(deviceID string, t BatteryType) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.levels[deviceID][t]
}

func (c *BatteryCache) Levels(deviceID string) BatteryLevels {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.levels[deviceID]
	return BatteryLevels{
		CollectorInner:   m[BatteryCollectorInner],
		CollectorOuter:   m[BatteryCollectorOuter],
		Thermometer:      m[BatteryThermometer],
		Oximeter:         m[BatteryOximeter],
		Sphygmomanometer: m[BatterySphygmomanometer],
		FlowMeter:        m[BatteryFlowMeter],
	}
}

func (c *BatteryCache) Devices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.levels))
	for id := range c.levels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
