package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Vectors are treated as rows: a point p is transformed by p * M, so the
 * translation lives in elements 12, 13 and 14 and M0.Mul(M1) applies M0 first.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}
