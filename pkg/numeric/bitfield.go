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

// BitField addresses Width bits starting at bit Shift of the byte at Offset.
type BitField struct {
	Offset int
	Shift  uint
	Width  uint
}

// Bit is a one bit wide field.
func Bit(offset int, shift uint) BitField {
	return BitField{Offset: offset, Shift: shift, Width: 1}
}

// Mask returns the in-place mask of the field.
func (f BitField) Mask() byte {
	return byte((1<<f.Width)-1) << f.Shift
}

// Read returns (data[Offset] & mask) >> shift.
func (f BitField) Read(data []byte) int {
	return int((data[f.Offset] & f.Mask()) >> f.Shift)
}

// Write stores v into the field leaving the other bits of the byte untouched.
func (f BitField) Write(data []byte, v int) {
	data[f.Offset] = data[f.Offset]&^f.Mask() | (byte(v)<<f.Shift)&f.Mask()
}

// Of applies the field to a single byte value.
func (f BitField) Of(b byte) int {
	return int((b & f.Mask()) >> f.Shift)
}
