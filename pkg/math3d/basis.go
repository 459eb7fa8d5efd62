package math3d

import "math"

// OrthonormalBasis returns two unit vectors u, v such that (u, v, n) is a
// right-handed orthonormal frame. n must be normalized.
//
// Uses the branchless construction of Duff et al., "Building an
// Orthonormal Basis, Revisited" (JCGT 2017).
func OrthonormalBasis(n Vec3) (u, v Vec3) {
	sign := math.Copysign(1, n.Z)
	a := -1 / (sign + n.Z)
	b := n.X * n.Y * a
	u = Vec3{1 + sign*n.X*n.X*a, sign * b, -sign * n.X}
	v = Vec3{b, sign + n.Y*n.Y*a, -n.Y}
	return u, v
}
