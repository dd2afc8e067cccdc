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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vitalwave/go-collector/cmd/completion"
	"github.com/vitalwave/go-collector/cmd/config"
	"github.com/vitalwave/go-collector/cmd/console"
	"github.com/vitalwave/go-collector/cmd/decode"
	"github.com/vitalwave/go-collector/cmd/devices"
	"github.com/vitalwave/go-collector/cmd/serve"
	pkgconfig "github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, configPath string
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:           "go-collector",
		Short:         "Tool to receive and decode bedside vital signs collectors",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg.SetPath(configPath)
			}
			if err := cfg.Load(); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(serve.NewCommand(cfg))
	cmd.AddCommand(decode.NewCommand(cfg))
	cmd.AddCommand(console.NewCommand(cfg))
	cmd.AddCommand(devices.NewCommand(cfg))
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&configPath, ConfigOptionName, "",
		fmt.Sprintf("Config file. Default %s", pkgconfig.DefaultConfigPath()))
	return cmd
}
