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

import (
	"fmt"
	"math"
	"strconv"
)

// Float32ToHex renders the IEEE-754 bits of f as eight lowercase hex digits.
func Float32ToHex(f float32) string {
	return fmt.Sprintf("%08x", math.Float32bits(f))
}

// Float32ToBin renders the IEEE-754 bits of f as 32 binary digits.
func Float32ToBin(f float32) string {
	return fmt.Sprintf("%032b", math.Float32bits(f))
}

// HexToFloat32 reads eight hex digits as an IEEE-754 single and rounds it to
// decimalBits places. A negative decimalBits keeps the full value.
func HexToFloat32(s string, decimalBits int, floor bool) (float64, error) {
	bits, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, ErrMalformedHex{Hex: s}
	}
	return Decimal(float64(math.Float32frombits(uint32(bits))), decimalBits, floor), nil
}

// BinToFloat32 is HexToFloat32 for a string of binary digits.
func BinToFloat32(s string, decimalBits int, floor bool) (float64, error) {
	bits, err := strconv.ParseUint(s, 2, 32)
	if err != nil {
		return 0, fmt.Errorf("not a 32 bit binary string: %s", s)
	}
	return Decimal(float64(math.Float32frombits(uint32(bits))), decimalBits, floor), nil
}

// Decimal rounds (or floors) value to decimalBits places.
func Decimal(value float64, decimalBits int, floor bool) float64 {
	if decimalBits <= 0 {
		return value
	}
	delta := math.Pow10(decimalBits)
	if floor {
		return math.Floor(value*delta) / delta
	}
	return math.Round(value*delta) / delta
}
