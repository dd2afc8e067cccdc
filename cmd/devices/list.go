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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalwave/go-collector/pkg/command"
	"github.com/vitalwave/go-collector/pkg/config"
)

// offlineAfter is how long a device may stay silent before it is flagged
const offlineAfter = 10 * time.Second

func NewListCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List devices seen by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			devices, err := apiClient.Devices()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range devices {
				fmt.Fprintf(out, "%s\tlast seen %s\tlost %d", d.ID, d.LastSeen.Local().Format(time.RFC3339), d.Lost)
				if time.Since(d.LastSeen) > offlineAfter {
					fmt.Fprint(out, "\t!!! Device is offline")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	return cmd
}
