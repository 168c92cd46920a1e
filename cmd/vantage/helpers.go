package main

import (
	"fmt"

	"vantage/internal/geometry"
)

func formatVec(v geometry.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
