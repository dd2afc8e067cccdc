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

const (
	ConfigDir  = ".go-collector"
	ConfigFile = "config"
	DBFile     = "state.db"

	DefaultLogLevel = "info"

	DefaultCollectorAddress = "0.0.0.0"
	DefaultCollectorPort    = 9100
	// DefaultMaxBuffered bounds the bytes a connection may hold without
	// yielding a frame. A joined frame is at most 670 bytes.
	DefaultMaxBuffered    = 64 * 1024
	DefaultJointTimeoutMs = 2000
	DefaultBpWindowMs     = 10000

	DefaultApiAddress = "0.0.0.0"
	DefaultApiPort    = 8080

	DefaultConsoleAddress = "127.0.0.1"
	DefaultConsolePort    = 9200
)
