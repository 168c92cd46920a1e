package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vec3 is a point or direction in scene coordinates. It marshals as the
// three-element JSON array used throughout the project document.
type Vec3 struct {
	X, Y, Z float64
}

// Vec constructs a Vec3 from its components.
func Vec(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the component-wise sum of v and other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns the component-wise difference of v and other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by factor.
func (v Vec3) Scale(factor float64) Vec3 {
	return Vec3{X: v.X * factor, Y: v.Y * factor, Z: v.Z * factor}
}

// Lerp moves v a fraction of the remaining distance toward goal.
func (v Vec3) Lerp(goal Vec3, factor float64) Vec3 {
	return v.Add(goal.Sub(v).Scale(factor))
}

// DistanceTo returns the Euclidean distance between v and other.
func (v Vec3) DistanceTo(other Vec3) float64 {
	d := v.Sub(other)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// MarshalJSON encodes the vector as [x, y, z].
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON decodes a [x, y, z] array.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("vec3: expected 3 components, got %d", len(arr))
	}
	v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
	return nil
}
