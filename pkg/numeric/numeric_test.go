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
	"bytes"
	"testing"
)

func TestNumberRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		value     int64
		bitWidth  int
		bigEndian bool
		signed    bool
	}{
		{"u8", 0xAB, 8, true, false},
		{"s8 negative", -5, 8, true, true},
		{"u16 big endian", 0x1234, 16, true, false},
		{"u16 little endian", 0x1234, 16, false, false},
		{"s16 big endian negative", -32768, 16, true, true},
		{"s16 little endian negative", -2, 16, false, true},
		{"u32 big endian", 0xDEADBEEF, 32, true, false},
		{"s32 little endian negative", -123456, 32, false, true},
		{"s64 big endian", -1, 64, true, true},
		{"u64 little endian", 0x0102030405060708, 64, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NumberToBytes(tt.value, tt.bitWidth, tt.bigEndian)
			if len(b) != tt.bitWidth/8 {
				t.Fatalf("Expected %d bytes, got %d", tt.bitWidth/8, len(b))
			}
			got := BytesToNumber(b, tt.bigEndian, tt.signed)
			if got != tt.value {
				t.Errorf("Expected %d, got %d (bytes % X)", tt.value, got, b)
			}
		})
	}
}

func TestNumberToBytesOrder(t *testing.T) {
	if got := NumberToBytes(0x1234, 16, true); !bytes.Equal(got, []byte{0x12, 0x34}) {
		t.Errorf("Big endian: got % X", got)
	}
	if got := NumberToBytes(0x1234, 16, false); !bytes.Equal(got, []byte{0x34, 0x12}) {
		t.Errorf("Little endian: got % X", got)
	}
}

func TestBytesToNumberUnsignedHighBit(t *testing.T) {
	if got := BytesToNumber([]byte{0xFF, 0xFE}, true, false); got != 0xFFFE {
		t.Errorf("Expected 65534, got %d", got)
	}
	if got := BytesToNumber([]byte{0xFE, 0xFF}, false, true); got != -2 {
		t.Errorf("Expected -2, got %d", got)
	}
}

func TestBytesToNumberArray(t *testing.T) {
	got, err := BytesToNumberArray([]byte{0x00, 0x01, 0x01, 0x00}, 16, true, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 256 {
		t.Errorf("Unexpected array: %v", got)
	}
	if _, err := BytesToNumberArray([]byte{0x00}, 12, true, false); err == nil {
		t.Errorf("Expected error for bit size 12")
	}
}

func TestCRC16Modbus(t *testing.T) {
	data := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	if got := CRC16Sum(data); got != 0xCDC5 {
		t.Errorf("Expected 0xCDC5, got 0x%04X", got)
	}
	if got := CRC16(data, false); !bytes.Equal(got, []byte{0xC5, 0xCD}) {
		t.Errorf("Expected wire order C5 CD, got % X", got)
	}
	if got := CRC16(data, true); !bytes.Equal(got, []byte{0xCD, 0xC5}) {
		t.Errorf("Expected big endian CD C5, got % X", got)
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, s := range []string{"", "00", "55AA021F", "0123456789ABCDEF"} {
		b, err := HexToBytes(s)
		if err != nil {
			t.Fatalf("HexToBytes(%q): %v", s, err)
		}
		if got := BytesToHex(b); got != s {
			t.Errorf("Expected %q, got %q", s, got)
		}
	}
}

func TestHexToBytesMalformed(t *testing.T) {
	for _, s := range []string{"ABC", "0", "ZZ"} {
		_, err := HexToBytes(s)
		if _, ok := err.(ErrMalformedHex); !ok {
			t.Errorf("HexToBytes(%q): expected ErrMalformedHex, got %v", s, err)
		}
	}
}

func TestHexNumber(t *testing.T) {
	if got := NumberToHex(0x0A0B, 16, true); got != "0A0B" {
		t.Errorf("Expected 0A0B, got %s", got)
	}
	v, err := HexToNumber("FFFF", true, true)
	if err != nil || v != -1 {
		t.Errorf("Expected -1, got %d (%v)", v, err)
	}
}

func TestEncodeUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"A", []byte{0x41}},
		{"é", []byte{0xC3, 0xA9}},
		{"中", []byte{0xE4, 0xB8, 0xAD}},
		// surrogates are encoded one by one
		{"\U0001F600", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
	}
	for _, tt := range tests {
		if got := EncodeUTF8(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeUTF8(%q): expected % X, got % X", tt.in, tt.want, got)
		}
	}
}

func TestFloat32Hex(t *testing.T) {
	if got := Float32ToHex(1.5); got != "3fc00000" {
		t.Errorf("Expected 3fc00000, got %s", got)
	}
	v, err := HexToFloat32("40490fdb", 2, false)
	if err != nil || v != 3.14 {
		t.Errorf("Expected 3.14, got %v (%v)", v, err)
	}
	v, err = BinToFloat32(Float32ToBin(-2.75), -1, false)
	if err != nil || v != -2.75 {
		t.Errorf("Expected -2.75, got %v (%v)", v, err)
	}
	if got := Decimal(1.239, 2, true); got != 1.23 {
		t.Errorf("Expected 1.23, got %v", got)
	}
}

func TestBitField(t *testing.T) {
	data := []byte{0b10110100}
	tests := []struct {
		field BitField
		want  int
	}{
		{Bit(0, 0), 0},
		{Bit(0, 2), 1},
		{Bit(0, 7), 1},
		{BitField{Offset: 0, Shift: 4, Width: 4}, 0b1011},
		{BitField{Offset: 0, Shift: 2, Width: 3}, 0b101},
	}
	for _, tt := range tests {
		if got := tt.field.Read(data); got != tt.want {
			t.Errorf("%+v: expected %b, got %b", tt.field, tt.want, got)
		}
	}

	buf := []byte{0xFF}
	BitField{Offset: 0, Shift: 2, Width: 2}.Write(buf, 0)
	if buf[0] != 0b11110011 {
		t.Errorf("Expected 11110011, got %08b", buf[0])
	}
	BitField{Offset: 0, Shift: 2, Width: 2}.Write(buf, 0b10)
	if buf[0] != 0b11111011 {
		t.Errorf("Expected 11111011, got %08b", buf[0])
	}
}
