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

package command

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/srv"
	"github.com/vitalwave/go-collector/pkg/store"
)

// ApiClient talks to the REST API of a running server.
type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	host := cfg.Api.Address
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", host, cfg.Api.Port),
	}
}

func (c *ApiClient) deviceUrl(id, what string) string {
	if what == "" {
		return fmt.Sprintf("%s/devices/%s", c.ApiPrefix, id)
	}
	return fmt.Sprintf("%s/devices/%s/%s", c.ApiPrefix, id, what)
}

func getJSON(url, id string, v interface{}) error {
	r, err := req.Get(url)
	if err != nil {
		return err
	}
	switch r.Response().StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return store.ErrNotFound{DeviceID: id}
	default:
		return errors.New(r.Response().Status)
	}
	return r.ToJSON(v)
}

// Devices lists the devices the server has seen
func (c *ApiClient) Devices() ([]store.Device, error) {
	var devices []store.Device
	if err := getJSON(fmt.Sprintf("%s/devices", c.ApiPrefix), "", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Packet returns the latest realtime record of a device
func (c *ApiClient) Packet(id string) (*collector.HardwarePacket, error) {
	hp := &collector.HardwarePacket{}
	if err := getJSON(c.deviceUrl(id, ""), id, hp); err != nil {
		return nil, err
	}
	return hp, nil
}

func (c *ApiClient) Bp(id string) (*collector.BpPacket, error) {
	bp := &collector.BpPacket{}
	if err := getJSON(c.deviceUrl(id, "bp"), id, bp); err != nil {
		return nil, err
	}
	return bp, nil
}

func (c *ApiClient) Battery(id string) (*collector.BatteryLevels, error) {
	levels := &collector.BatteryLevels{}
	if err := getJSON(c.deviceUrl(id, "battery"), id, levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// Console returns the latest realtime record as a console frame
func (c *ApiClient) Console(id string) (*srv.ConsoleFrame, error) {
	cf := &srv.ConsoleFrame{}
	if err := getJSON(c.deviceUrl(id, "console"), id, cf); err != nil {
		return nil, err
	}
	return cf, nil
}
