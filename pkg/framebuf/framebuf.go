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

// Package framebuf is the append-only byte queue the stream decoder scans
// for frames.
package framebuf

// Buffer accumulates transport bytes until whole frames can be cut out
// of it. It does not bound its own size.
type Buffer struct {
	data []byte
}

func New() *Buffer {
	return &Buffer{}
}

// Write appends p. It never fails and so satisfies io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

// Find returns the first index >= offset where pattern starts, or -1.
func (b *Buffer) Find(pattern []byte, offset int) int {
	if len(pattern) == 0 || offset < 0 {
		return -1
	}
	first := pattern[0]
	for i := offset; i+len(pattern) <= len(b.data); i++ {
		if b.data[i] != first {
			continue
		}
		j := 1
		for ; j < len(pattern); j++ {
			if b.data[i+j] != pattern[j] {
				break
			}
		}
		if j == len(pattern) {
			return i
		}
	}
	return -1
}

// Read returns a copy of n bytes from start. With consume set the range is
// also cut out of the buffer. The range is clipped to the buffered bytes.
func (b *Buffer) Read(start, n int, consume bool) []byte {
	if start < 0 {
		start = 0
	}
	if start > len(b.data) {
		start = len(b.data)
	}
	end := start + n
	if n < 0 || end > len(b.data) {
		end = len(b.data)
	}
	out := make([]byte, end-start)
	copy(out, b.data[start:end])
	if consume {
		b.data = append(b.data[:start], b.data[end:]...)
		if len(b.data) == 0 {
			// drop the backing array so a long session does not pin it
			b.data = nil
		}
	}
	return out
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Clear drops everything buffered.
func (b *Buffer) Clear() {
	b.data = nil
}
