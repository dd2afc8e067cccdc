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

// Package store keeps the latest decoded state of every device in a bbolt
// database.
package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/log"
)

const (
	BucketNamePrefix = "device_"
)

var (
	keyPacket   = []byte("packet")
	keyBp       = []byte("bp")
	keyBattery  = []byte("battery")
	keyFrame    = []byte("frame")
	keyLost     = []byte("lost")
	keyLastSeen = []byte("last_seen")
)

type ErrNotFound struct {
	DeviceID string
	Key      string
}

func (e ErrNotFound) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("Device not found: %s", e.DeviceID)
	}
	return fmt.Sprintf("No %s for device %s", e.Key, e.DeviceID)
}

// Device summarizes one bucket.
type Device struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"lastSeen"`
	Lost     uint64    `json:"lost"`
}

// State is a collector.Listener persisting what the decoders deliver.
type State struct {
	context.Context
	DB *bbolt.DB
	// Battery, when set, is snapshotted with every realtime record
	Battery *collector.BatteryCache
	now     func() time.Time
}

func NewState(ctx context.Context, path string) (*State, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &State{
		Context: ctx,
		DB:      db,
		now:     time.Now,
	}, nil
}

func bucketName(deviceID string) []byte {
	return []byte(fmt.Sprintf("%s%s", BucketNamePrefix, deviceID))
}

// Close ...
func (s *State) Close() error {
	return s.DB.Close()
}

func (s *State) put(deviceID string, puts map[string]interface{}) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(deviceID))
		if err != nil {
			return err
		}
		for key, v := range puts {
			var value []byte
			if raw, ok := v.([]byte); ok {
				value = raw
			} else if value, err = yaml.Marshal(v); err != nil {
				return err
			}
			if err = b.Put([]byte(key), value); err != nil {
				return err
			}
		}
		return b.Put(keyLastSeen, []byte(s.now().UTC().Format(time.RFC3339Nano)))
	})
}

func (s *State) get(deviceID string, key []byte, v interface{}) error {
	return s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(deviceID))
		if b == nil {
			return ErrNotFound{DeviceID: deviceID}
		}
		value := b.Get(key)
		if value == nil {
			return ErrNotFound{DeviceID: deviceID, Key: string(key)}
		}
		if raw, ok := v.(*[]byte); ok {
			*raw = append([]byte(nil), value...)
			return nil
		}
		return yaml.Unmarshal(value, v)
	})
}

// PutPacket stores the latest realtime record and the frame it came from.
func (s *State) PutPacket(hp *collector.HardwarePacket, frame []byte) error {
	log.Debug("Storing packet %d of device %s", hp.PacketSn, hp.DeviceID)
	puts := map[string]interface{}{string(keyPacket): hp}
	if frame != nil {
		puts[string(keyFrame)] = frame
	}
	if s.Battery != nil {
		puts[string(keyBattery)] = s.Battery.Levels(hp.DeviceID)
	}
	return s.put(hp.DeviceID, puts)
}

func (s *State) Packet(deviceID string) (*collector.HardwarePacket, error) {
	hp := &collector.HardwarePacket{}
	if err := s.get(deviceID, keyPacket, hp); err != nil {
		return nil, err
	}
	return hp, nil
}

// Frame returns the raw frame of the latest realtime record.
func (s *State) Frame(deviceID string) ([]byte, error) {
	var frame []byte
	if err := s.get(deviceID, keyFrame, &frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (s *State) PutBp(bp *collector.BpPacket) error {
	log.Debug("Storing blood pressure of device %s", bp.DeviceID)
	return s.put(bp.DeviceID, map[string]interface{}{string(keyBp): bp})
}

func (s *State) Bp(deviceID string) (*collector.BpPacket, error) {
	bp := &collector.BpPacket{}
	if err := s.get(deviceID, keyBp, bp); err != nil {
		return nil, err
	}
	return bp, nil
}

func (s *State) PutBattery(deviceID string, levels collector.BatteryLevels) error {
	return s.put(deviceID, map[string]interface{}{string(keyBattery): levels})
}

func (s *State) BatteryLevels(deviceID string) (*collector.BatteryLevels, error) {
	levels := &collector.BatteryLevels{}
	if err := s.get(deviceID, keyBattery, levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// AddLost counts a fragment set the device never completed.
func (s *State) AddLost(deviceID string) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(deviceID))
		if err != nil {
			return err
		}
		var n uint64
		if v := b.Get(keyLost); len(v) == 8 {
			n = binary.BigEndian.Uint64(v)
		}
		value := make([]byte, 8)
		binary.BigEndian.PutUint64(value, n+1)
		return b.Put(keyLost, value)
	})
}

// Devices lists every device with a bucket, sorted by id.
func (s *State) Devices() ([]Device, error) {
	var devices []Device
	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			if len(name) <= len(BucketNamePrefix) || string(name[:len(BucketNamePrefix)]) != BucketNamePrefix {
				return nil
			}
			d := Device{ID: string(name[len(BucketNamePrefix):])}
			if v := b.Get(keyLastSeen); v != nil {
				d.LastSeen, _ = time.Parse(time.RFC3339Nano, string(v))
			}
			if v := b.Get(keyLost); len(v) == 8 {
				d.Lost = binary.BigEndian.Uint64(v)
			}
			devices = append(devices, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}

// Device returns the summary of one device.
func (s *State) Device(deviceID string) (*Device, error) {
	devices, err := s.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].ID == deviceID {
			return &devices[i], nil
		}
	}
	return nil, ErrNotFound{DeviceID: deviceID}
}

func (s *State) OnNotify(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{}) {
	var err error
	switch v := decoded.(type) {
	case *collector.HardwarePacket:
		err = s.PutPacket(v, data)
	case *collector.BpPacket:
		err = s.PutBp(v)
	default:
		return
	}
	if err != nil {
		log.Error("Error while storing %s of device %s: %s", t.Name, deviceID, err)
	}
}

func (s *State) OnPacketLost(lost *collector.JointPacket) {
	deviceID := lost.DeviceID()
	if deviceID == "" {
		return
	}
	if err := s.AddLost(deviceID); err != nil {
		log.Error("Error while counting lost packet %d of device %s: %s", lost.Sn, deviceID, err)
	}
}
