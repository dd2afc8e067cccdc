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
	"sigs.k8s.io/yaml"

	pkgcmd "github.com/vitalwave/go-collector/pkg/cmd"
	pkgconsole "github.com/vitalwave/go-collector/pkg/console"
)

const (
	FileOptionName   = "file"
	LayersOptionName = "layers"
)

func NewParseCommand() *cobra.Command {
	var file string
	var showLayers bool
	cmd := &cobra.Command{
		Use:   "parse [HEX...]",
		Short: "Parse one console frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := pkgcmd.ReadHex(file, args)
			if err != nil {
				return err
			}
			if showLayers {
				fmt.Fprint(cmd.OutOrStdout(), pkgcmd.DumpConsole(frame))
				return nil
			}
			p, err := pkgconsole.Parse(frame)
			if err != nil {
				return err
			}
			text, err := yaml.Marshal(struct {
				*pkgconsole.Packet
				Gesture pkgconsole.Gesture `json:"gesture"`
			}{p, pkgconsole.FindGesture(p.Gesture)})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(text))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, FileOptionName, "", "File with the hex frame")
	cmd.Flags().BoolVar(&showLayers, LayersOptionName, false, "Print the packet layers instead of the fields")
	return cmd
}
