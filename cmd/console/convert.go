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

package console

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgcmd "github.com/vitalwave/go-collector/pkg/cmd"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/numeric"
)

func NewConvertCommand(cfg *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "convert [HEX...]",
		Short: "Convert a collector capture to console frames, one hex line each",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := pkgcmd.ReadHex(file, args)
			if err != nil {
				return err
			}
			for _, frame := range pkgcmd.Convert(data, cfg) {
				fmt.Fprintln(cmd.OutOrStdout(), numeric.BytesToHex(frame))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, FileOptionName, "", "File with the hex capture")
	return cmd
}
