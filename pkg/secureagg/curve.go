// Package secureagg implements the privacy-preserving feedback primitives:
// an elliptic-curve Diffie-Hellman exchange over a small demonstration curve
// and pairwise-cancelling aggregation masks derived from the shared secrets.
//
// The curve y^2 = x^3 + 1 over the Mersenne prime 2^31-1 is explicitly a
// simplified, NON-PRODUCTION construction: parameters this small offer no
// real confidentiality. It exists so masked gradients cancel correctly in
// aggregate, not to resist a determined adversary.
package secureagg

import (
	"errors"
	"fmt"
)

// Curve parameters: y^2 = x^3 + A*x + B (mod Prime), generator G.
// Order is a demo approximation used only to bound private keys.
const (
	Prime int64 = 2147483647 // 2^31 - 1
	A     int64 = 0
	B     int64 = 1
	GenX  int64 = 2
	GenY  int64 = 3
	Order int64 = Prime
)

// ErrNoInverse signals a nonexistent modular inverse. With a prime modulus
// and nonzero input this cannot happen; seeing it means an arithmetic
// invariant broke.
var ErrNoInverse = errors.New("modular inverse does not exist")

// Point is a point on the curve. The point at infinity (group identity) is
// represented by the sentinel returned from Infinity.
type Point struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// infinity sentinel coordinates; no finite curve point carries them.
const infCoord int64 = -1

// Infinity returns the identity element.
func Infinity() Point {
	return Point{X: infCoord, Y: infCoord}
}

// IsInfinity reports whether p is the identity.
func (p Point) IsInfinity() bool {
	return p.X == infCoord && p.Y == infCoord
}

// Generator returns the curve's base point.
func Generator() Point {
	return Point{X: GenX, Y: GenY}
}

// OnCurve reports whether p satisfies the curve equation. The identity is on
// the curve by definition.
func (p Point) OnCurve() bool {
	if p.IsInfinity() {
		return true
	}
	if p.X < 0 || p.X >= Prime || p.Y < 0 || p.Y >= Prime {
		return false
	}
	lhs := mulMod(p.Y, p.Y)
	rhs := addMod(addMod(mulMod(mulMod(p.X, p.X), p.X), mulMod(A, p.X)), B)
	return lhs == rhs
}

// mulMod multiplies modulo Prime. Operands stay below 2^31, so the product
// fits in int64 without overflow.
func mulMod(a, b int64) int64 {
	return (a % Prime) * (b % Prime) % Prime
}

func addMod(a, b int64) int64 {
	return ((a+b)%Prime + Prime) % Prime
}

func subMod(a, b int64) int64 {
	return ((a-b)%Prime + Prime) % Prime
}

// ModInverse returns k^-1 mod m via the extended Euclidean algorithm.
// k congruent to zero has no inverse and returns ErrNoInverse.
func ModInverse(k, m int64) (int64, error) {
	if m <= 1 {
		return 0, fmt.Errorf("%w: invalid modulus %d", ErrNoInverse, m)
	}
	k = (k%m + m) % m
	if k == 0 {
		return 0, fmt.Errorf("%w: zero has no inverse mod %d", ErrNoInverse, m)
	}

	// Extended Euclid: maintain old_r, r and the Bezout coefficient of k.
	oldR, r := k, m
	oldS, s := int64(1), int64(0)
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
	}
	if oldR != 1 {
		return 0, fmt.Errorf("%w: gcd(%d, %d) = %d", ErrNoInverse, k, m, oldR)
	}
	return (oldS%m + m) % m, nil
}

// PointAdd adds two curve points, handling the identity, the vertical-line
// inverse case, and tangent doubling explicitly.
func PointAdd(p, q Point) (Point, error) {
	if p.IsInfinity() {
		return q, nil
	}
	if q.IsInfinity() {
		return p, nil
	}

	if p.X == q.X {
		// Vertical line: either inverses (sum is identity) or doubling.
		if addMod(p.Y, q.Y) == 0 {
			return Infinity(), nil
		}
		return pointDouble(p)
	}

	inv, err := ModInverse(subMod(q.X, p.X), Prime)
	if err != nil {
		return Point{}, err
	}
	slope := mulMod(subMod(q.Y, p.Y), inv)
	x3 := subMod(subMod(mulMod(slope, slope), p.X), q.X)
	y3 := subMod(mulMod(slope, subMod(p.X, x3)), p.Y)
	return Point{X: x3, Y: y3}, nil
}

// pointDouble computes 2P via the tangent slope. A point with y = 0 doubles
// to the identity.
func pointDouble(p Point) (Point, error) {
	if p.Y == 0 {
		return Infinity(), nil
	}
	inv, err := ModInverse(mulMod(2, p.Y), Prime)
	if err != nil {
		return Point{}, err
	}
	slope := mulMod(addMod(mulMod(3, mulMod(p.X, p.X)), A), inv)
	x3 := subMod(mulMod(slope, slope), mulMod(2, p.X))
	y3 := subMod(mulMod(slope, subMod(p.X, x3)), p.Y)
	return Point{X: x3, Y: y3}, nil
}

// ScalarMultiply computes k*P by double-and-add. k <= 0 yields the identity.
func ScalarMultiply(k int64, p Point) (Point, error) {
	if k <= 0 || p.IsInfinity() {
		return Infinity(), nil
	}
	result := Infinity()
	addend := p
	var err error
	for k > 0 {
		if k&1 == 1 {
			result, err = PointAdd(result, addend)
			if err != nil {
				return Point{}, err
			}
		}
		addend, err = PointAdd(addend, addend)
		if err != nil {
			return Point{}, err
		}
		k >>= 1
	}
	return result, nil
}
