package math3d

import "math"

// Mat4 is a 4x4 matrix stored in column-major order, the same layout glTF
// node matrices and PBRT Transform directives use, so both can be copied
// into it element for element. Element (row, col) lives at index col*4+row;
// columns 0-2 hold the linear map and column 3 the translation.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Translate returns a translation by v.
func Translate(v Vec3) Mat4 {
	return FromAffine(V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1), v)
}

// Scale returns a per-axis scale by v.
func Scale(v Vec3) Mat4 {
	return FromAffine(V3(v.X, 0, 0), V3(0, v.Y, 0), V3(0, 0, v.Z), Vec3{})
}

// RotateY returns a rotation of angle radians about +Y.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return FromAffine(V3(c, 0, -s), V3(0, 1, 0), V3(s, 0, c), Vec3{})
}

// Rotate returns a rotation of angle radians about axis, counter-clockwise
// when looking down the axis toward the origin.
func Rotate(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize().Scale(math.Sin(angle / 2))
	return FromQuat(a.X, a.Y, a.Z, math.Cos(angle/2))
}

// FromQuat returns the rotation matrix for the unit quaternion (x, y, z, w).
func FromQuat(x, y, z, w float64) Mat4 {
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return FromAffine(
		V3(1-2*(yy+zz), 2*(xy+wz), 2*(xz-wy)),
		V3(2*(xy-wz), 1-2*(xx+zz), 2*(yz+wx)),
		V3(2*(xz+wy), 2*(yz-wx), 1-2*(xx+yy)),
		Vec3{},
	)
}

// LookAt returns the right-handed view matrix for a camera at eye facing
// center, with the camera looking down its local -Z.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	r := f.Cross(up).Normalize()
	u := r.Cross(f)
	// The camera frame is orthonormal, so its inverse rotation is a transpose.
	rot := FromAffine(r, u, f.Negate(), Vec3{}).Transpose()
	return rot.Mul(Translate(eye.Negate()))
}

// Perspective returns an OpenGL-style projection mapping the view frustum
// to clip space with depth in [-1, 1]. fovy is the vertical field of view in
// radians and aspect is width over height.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	focal := 1 / math.Tan(fovy/2)
	depth := near - far
	var m Mat4
	m[0] = focal / aspect
	m[5] = focal
	m[10] = (far + near) / depth
	m[11] = -1
	m[14] = 2 * far * near / depth
	return m
}

// FromAffine builds a matrix from the three linear-map columns and a
// translation, leaving the bottom row as (0, 0, 0, 1).
func FromAffine(vx, vy, vz, p Vec3) Mat4 {
	return Mat4{
		vx.X, vx.Y, vx.Z, 0,
		vy.X, vy.Y, vy.Z, 0,
		vz.X, vz.Y, vz.Z, 0,
		p.X, p.Y, p.Z, 1,
	}
}

// Mul returns the product a * b, so (a*b)v applies b first.
//
//nolint:st1016 // a*b reads better than m*n here
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for c := range 4 {
		col := a.MulVec4(Vec4{b[c*4], b[c*4+1], b[c*4+2], b[c*4+3]})
		m[c*4], m[c*4+1], m[c*4+2], m[c*4+3] = col.X, col.Y, col.Z, col.W
	}
	return m
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// MulVec3 transforms v as a point (w=1), dividing by the resulting w when
// it is non-zero.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 1)).PerspectiveDivide()
}

// MulVec3Dir transforms v as a direction (w=0), ignoring translation.
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 0)).Vec3()
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for r := range 4 {
		for c := range 4 {
			t[r*4+c] = m[c*4+r]
		}
	}
	return t
}

// Determinant returns the determinant of m.
func (m Mat4) Determinant() float64 {
	_, det := m.invert()
	return det
}

// Inverse returns the inverse of m, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	inv, _ := m.invert()
	return inv
}

// invert runs Gauss-Jordan elimination with partial pivoting over the rows
// of m, applying the same row operations to an identity matrix.
func (m Mat4) invert() (Mat4, float64) {
	a, inv := m, Identity()
	det := 1.0
	for col := range 4 {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(a[col*4+r]) > math.Abs(a[col*4+pivot]) {
				pivot = r
			}
		}
		p := a[col*4+pivot]
		if p == 0 {
			return Identity(), 0
		}
		if pivot != col {
			a.swapRows(col, pivot)
			inv.swapRows(col, pivot)
			det = -det
		}
		det *= p
		a.scaleRow(col, 1/p)
		inv.scaleRow(col, 1/p)
		for r := range 4 {
			if f := a[col*4+r]; r != col && f != 0 {
				a.addRow(r, col, -f)
				inv.addRow(r, col, -f)
			}
		}
	}
	return inv, det
}

func (m *Mat4) swapRows(i, j int) {
	for c := range 4 {
		m[c*4+i], m[c*4+j] = m[c*4+j], m[c*4+i]
	}
}

func (m *Mat4) scaleRow(i int, s float64) {
	for c := range 4 {
		m[c*4+i] *= s
	}
}

// addRow adds s times row src to row dst.
func (m *Mat4) addRow(dst, src int, s float64) {
	for c := range 4 {
		m[c*4+dst] += s * m[c*4+src]
	}
}

// NormalMatrix returns the inverse transpose of m, for transforming normals
// under non-uniform scale.
func (m Mat4) NormalMatrix() Mat4 {
	return m.Inverse().Transpose()
}

// Translation extracts the translation component.
func (m Mat4) Translation() Vec3 {
	return m.Column(3)
}

// Column returns the first three components of column col.
func (m Mat4) Column(col int) Vec3 {
	return Vec3{m[col*4], m[col*4+1], m[col*4+2]}
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}

// MaxDiff returns the largest absolute element-wise difference between m and o.
func (m Mat4) MaxDiff(o Mat4) float64 {
	var d float64
	for i := range m {
		d = math.Max(d, math.Abs(m[i]-o[i]))
	}
	return d
}
