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

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

type CollectorConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
	// MaxBuffered is the number of unframed bytes after which a
	// connection decoder is reset.
	MaxBuffered    int `json:"maxBuffered,omitempty"`
	JointTimeoutMs int `json:"jointTimeoutMs,omitempty"`
	BpWindowMs     int `json:"bpWindowMs,omitempty"`
}

func (c *CollectorConfig) Endpoint() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

func (c *CollectorConfig) JointTimeout() time.Duration {
	return time.Duration(c.JointTimeoutMs) * time.Millisecond
}

func (c *CollectorConfig) BpWindow() time.Duration {
	return time.Duration(c.BpWindowMs) * time.Millisecond
}

type ApiConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

func (c *ApiConfig) Endpoint() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// ConsoleConfig is where transcoded frames are forwarded over UDP.
type ConsoleConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

func (c *ConsoleConfig) Endpoint() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// Device carries the per-bed metadata the console format needs and the
// collector frames do not.
type Device struct {
	ID       string `json:"id"`
	OrderNum int    `json:"orderNum"`
}

type Config struct {
	LogLevel         string `json:"logLevel,omitempty"`
	DBPath           string `json:"dbPath,omitempty"`
	// CaptureFile, when set, receives every delivered frame as a hex line
	CaptureFile      string `json:"captureFile,omitempty"`
	*CollectorConfig `json:"collector,omitempty"`
	Api              *ApiConfig     `json:"api,omitempty"`
	Console          *ConsoleConfig `json:"console,omitempty"`
	Devices          []*Device      `json:"devices,omitempty"`
	filepath         string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the current values. A missing file is
// not an error, the defaults stay in place.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

// OrderNum returns the configured order number of the device, or zero.
func (c *Config) OrderNum(deviceID string) int {
	for _, d := range c.Devices {
		if d.ID == deviceID {
			return d.OrderNum
		}
	}
	return 0
}

func (c *Config) Yaml() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		DBPath:   DefaultDBPath(),
		CollectorConfig: &CollectorConfig{
			Address:        DefaultCollectorAddress,
			Port:           DefaultCollectorPort,
			MaxBuffered:    DefaultMaxBuffered,
			JointTimeoutMs: DefaultJointTimeoutMs,
			BpWindowMs:     DefaultBpWindowMs,
		},
		Api: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		Console: &ConsoleConfig{
			Enabled: false,
			Address: DefaultConsoleAddress,
			Port:    DefaultConsolePort,
		},
		filepath: DefaultConfigPath(),
	}
}
