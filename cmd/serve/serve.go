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

package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/srv"
)

const (
	AddressOptionName        = "address"
	PortOptionName           = "port"
	ApiPortOptionName        = "api-port"
	ConsoleAddressOptionName = "console-address"
	ConsolePortOptionName    = "console-port"
	CaptureOptionName        = "capture"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var address, consoleAddress, capture string
	var port, apiPort, consolePort int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive collector streams and serve the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.CollectorConfig.Address = address
			}
			if port != 0 {
				cfg.CollectorConfig.Port = port
			}
			if apiPort != 0 {
				cfg.Api.Port = apiPort
			}
			if consoleAddress != "" {
				cfg.Console.Enabled = true
				cfg.Console.Address = consoleAddress
			}
			if consolePort != 0 {
				cfg.Console.Port = consolePort
			}
			if capture != "" {
				cfg.CaptureFile = capture
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			service, err := srv.NewService(ctx, cfg)
			if err != nil {
				return err
			}
			defer service.Close()
			err = service.Run()
			if errors.Is(err, context.Canceled) {
				log.Info("Shutting down")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "",
		fmt.Sprintf("Address to accept collectors on. Default %s", config.DefaultCollectorAddress))
	cmd.Flags().IntVar(&port, PortOptionName, 0,
		fmt.Sprintf("Port to accept collectors on. Default %d", config.DefaultCollectorPort))
	cmd.Flags().IntVar(&apiPort, ApiPortOptionName, 0,
		fmt.Sprintf("API port. Default %d", config.DefaultApiPort))
	cmd.Flags().StringVar(&consoleAddress, ConsoleAddressOptionName, "",
		"Forward console frames to this address. E.g. 192.168.1.20")
	cmd.Flags().IntVar(&consolePort, ConsolePortOptionName, 0,
		fmt.Sprintf("Console port. Default %d", config.DefaultConsolePort))
	cmd.Flags().StringVar(&capture, CaptureOptionName, "", "Append every delivered frame to this file as hex")
	return cmd
}
