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

package decode

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	pkgcmd "github.com/vitalwave/go-collector/pkg/cmd"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/numeric"
)

const (
	FileOptionName   = "file"
	LayersOptionName = "layers"

	decodeExample = `
Decode a capture saved as hex
# go-collector decode --file capture.hex

Decode a single frame and show its layers
# go-collector decode --layers 55AA000C0A0B0C0D7F01AB
`
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var file string
	var showLayers bool
	cmd := &cobra.Command{
		Use:     "decode [HEX...]",
		Short:   "Decode a collector capture offline",
		Example: decodeExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := pkgcmd.ReadHex(file, args)
			if err != nil {
				return err
			}
			records := pkgcmd.Decode(data, cfg.CollectorConfig)
			out := cmd.OutOrStdout()
			for _, r := range records {
				if showLayers && r.Frame != "" {
					frame, err := numeric.HexToBytes(r.Frame)
					if err != nil {
						return err
					}
					fmt.Fprint(out, pkgcmd.Dump(frame))
					continue
				}
				text, err := yaml.Marshal(r)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "---\n%s", text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, FileOptionName, "", "File with the hex capture")
	cmd.Flags().BoolVar(&showLayers, LayersOptionName, false, "Print the packet layers instead of the records")
	return cmd
}
