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

package numeric

// CRC16Sum computes the Modbus flavour of CRC16: seed 0xFFFF, reflected
// polynomial 0xA001.
func CRC16Sum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = (crc & 0xFF00) | ((crc & 0x00FF) ^ uint16(b))
		for j := 0; j < 8; j++ {
			if crc&0x0001 > 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc = crc >> 1
			}
		}
	}
	return crc
}

// CRC16 returns the Modbus CRC16 of data serialized as two bytes.
// Modbus frames carry the value little endian.
func CRC16(data []byte, bigEndian bool) []byte {
	return NumberToBytes(int64(CRC16Sum(data)), 16, bigEndian)
}
