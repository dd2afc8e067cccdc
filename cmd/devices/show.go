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

package devices

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/vitalwave/go-collector/pkg/command"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/store"
)

const (
	ConsoleOptionName = "console"
)

func NewShowCommand(cfg *config.Config) *cobra.Command {
	var showConsole bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show the latest record, blood pressure and battery of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			apiClient := command.NewApiClient(cfg)
			out := cmd.OutOrStdout()
			if showConsole {
				cf, err := apiClient.Console(id)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, cf.Hex)
				return nil
			}

			view := map[string]interface{}{}
			hp, err := apiClient.Packet(id)
			if err != nil {
				return err
			}
			view["packet"] = hp
			if bp, err := apiClient.Bp(id); err == nil {
				view["bp"] = bp
			} else if !errors.As(err, &store.ErrNotFound{}) {
				return err
			}
			if levels, err := apiClient.Battery(id); err == nil {
				view["battery"] = levels
			} else if !errors.As(err, &store.ErrNotFound{}) {
				return err
			}
			text, err := yaml.Marshal(view)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(text))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showConsole, ConsoleOptionName, false, "Print the latest record as a console frame")
	return cmd
}
