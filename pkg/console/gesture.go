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

import "strings"

// Gesture is a body position reported by the accelerometer analysis.
type Gesture struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	GestureUpright  = Gesture{1, "upright", "Standing or sitting"}
	GestureSupine   = Gesture{2, "supine", "Lying on the back"}
	GestureProne    = Gesture{3, "prone", "Lying on the stomach"}
	GestureRight    = Gesture{4, "right", "Lying on the right side"}
	GestureLeft     = Gesture{5, "left", "Lying on the left side"}
	GestureSlight   = Gesture{6, "slight", "Slight movement"}
	GestureActive   = Gesture{7, "active", "Active movement"}
	GestureExercise = Gesture{8, "exercise", "Exercising"}
	GestureUnknown  = Gesture{0, "unknown", "Unknown position"}
)

var gestures = []Gesture{
	GestureUpright,
	GestureSupine,
	GestureProne,
	GestureRight,
	GestureLeft,
	GestureSlight,
	GestureActive,
	GestureExercise,
}

// FindGesture returns the gesture of a code, GestureUnknown when there is
// none.
func FindGesture(code int) Gesture {
	for _, g := range gestures {
		if g.Code == code {
			return g
		}
	}
	return GestureUnknown
}

// OfGesture matches a gesture by name or by a fragment of its description.
func OfGesture(s string) Gesture {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GestureUnknown
	}
	for _, g := range gestures {
		if g.Name == s {
			return g
		}
	}
	for _, g := range gestures {
		if strings.Contains(strings.ToLower(g.Description), s) {
			return g
		}
	}
	return GestureUnknown
}

// IsLying reports the four lying positions.
func (g Gesture) IsLying() bool {
	return g.Code >= GestureSupine.Code && g.Code <= GestureLeft.Code
}

// IsMoving reports the three movement levels.
func (g Gesture) IsMoving() bool {
	return g.Code >= GestureSlight.Code && g.Code <= GestureExercise.Code
}

func (g Gesture) String() string {
	return g.Name
}
