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

package srv

import (
	"bufio"
	"os"
	"sync"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/layers"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/numeric"
)

// CaptureWriter is a collector.Listener appending every delivered frame
// to a file, one hex line each. The file can be fed back to the decode
// command.
type CaptureWriter struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

func NewCaptureWriter(filename string) (*CaptureWriter, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Error("Error while opening capture file: %s", filename)
		return nil, err
	}
	return &CaptureWriter{
		file: file,
		w:    bufio.NewWriter(file),
	}, nil
}

func (c *CaptureWriter) Write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.WriteString(numeric.BytesToHex(frame)); err != nil {
		return err
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *CaptureWriter) OnNotify(deviceID string, data []byte, t layers.PacketTypeMeta, decoded interface{}) {
	if err := c.Write(data); err != nil {
		log.Warning("Error while capturing %s frame of device %s: %s", t.Name, deviceID, err)
	}
}

func (c *CaptureWriter) OnPacketLost(lost *collector.JointPacket) {}

// Close flushes and closes the file.
func (c *CaptureWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	c.file.Sync()
	return c.file.Close()
}
