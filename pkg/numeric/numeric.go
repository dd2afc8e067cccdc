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

// Package numeric holds the byte level conversions shared by the collector
// and console codecs.
package numeric

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf16"
)

// BytesToNumber accumulates bytes into an integer.
// With signed set and the sign bit of the most significant byte raised the
// value is read as two's complement. Values wider than 63 bits overflow.
func BytesToNumber(b []byte, bigEndian, signed bool) int64 {
	if len(b) == 0 {
		return 0
	}
	msb := b[len(b)-1]
	if bigEndian {
		msb = b[0]
	}
	negative := signed && (msb&0b10000000)>>7 == 1

	var value int64
	for i := range b {
		v := b[i]
		if !bigEndian {
			v = b[len(b)-1-i]
		}
		if negative {
			v = ^v
		}
		value = value<<8 | int64(v)
	}
	if negative {
		value = -value - 1
	}
	return value
}

// NumberToBytes splits value into bitWidth/8 bytes.
func NumberToBytes(value int64, bitWidth int, bigEndian bool) []byte {
	size := bitWidth / 8
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		if bigEndian {
			out[i] = byte(value >> uint(bitWidth-8-i*8))
		} else {
			out[i] = byte(value >> uint(i*8))
		}
	}
	return out
}

// BytesToNumberArray splits b into numbers of bitSize bits each.
func BytesToNumberArray(b []byte, bitSize int, bigEndian, signed bool) ([]int64, error) {
	switch bitSize {
	case 8, 16, 32, 64:
	default:
		return nil, fmt.Errorf("unsupported bit size: %d", bitSize)
	}
	size := bitSize / 8
	out := make([]int64, len(b)/size)
	for i := range out {
		out[i] = BytesToNumber(b[i*size:i*size+size], bigEndian, signed)
	}
	return out, nil
}

// U16 reads a big endian unsigned 16 bit value at offset.
func U16(data []byte, offset int) int {
	return int(data[offset])<<8 | int(data[offset+1])
}

// U32 reads a big endian unsigned 32 bit value at offset.
func U32(data []byte, offset int) uint32 {
	return uint32(data[offset])<<24 | uint32(data[offset+1])<<16 | uint32(data[offset+2])<<8 | uint32(data[offset+3])
}

// HexToBytes decodes two hex digits per byte.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrMalformedHex{Hex: s}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrMalformedHex{Hex: s}
	}
	return b, nil
}

// BytesToHex encodes b as uppercase hex.
func BytesToHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// NumberToHex renders value as bitWidth/8 bytes of uppercase hex.
func NumberToHex(value int64, bitWidth int, bigEndian bool) string {
	return BytesToHex(NumberToBytes(value, bitWidth, bigEndian))
}

// HexToNumber decodes s and accumulates the bytes into an integer.
func HexToNumber(s string, bigEndian, signed bool) (int64, error) {
	b, err := HexToBytes(s)
	if err != nil {
		return 0, err
	}
	return BytesToNumber(b, bigEndian, signed), nil
}

// EncodeUTF8 encodes every UTF-16 code unit of s on its own.
// Surrogate pairs are not combined, so characters outside the BMP come out
// as two three-byte sequences.
func EncodeUTF8(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*3)
	for _, u := range units {
		code := uint32(u)
		switch {
		case code < 0x80:
			out = append(out, byte(code))
		case code < 0x800:
			out = append(out, 0xC0|byte(code>>6), 0x80|byte(code&0x3F))
		case code < 0x10000:
			out = append(out, 0xE0|byte(code>>12), 0x80|byte((code>>6)&0x3F), 0x80|byte(code&0x3F))
		default:
			out = append(out, 0xF0|byte(code>>18), 0x80|byte((code>>12)&0x3F),
				0x80|byte((code>>6)&0x3F), 0x80|byte(code&0x3F))
		}
	}
	return out
}
