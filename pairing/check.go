// Package pairing wraps the bilinear-map plumbing shared by the signature,
// batch and proof verifiers. A Check accumulates product-of-pairings
// equations of the form prod e(a_i, b_i)^{+/-1} = 1 and evaluates them with
// a single final exponentiation.
package pairing

import (
	"io"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

// Check is a merged pairing-equation accumulator.
type Check struct {
	curve *math.Curve
	acc   *math.Gt
}

// NewCheck returns an empty accumulator over the given curve.
func NewCheck(curve *math.Curve) *Check {
	return &Check{curve: curve}
}

func (c *Check) mul(t *math.Gt) {
	if c.acc == nil {
		c.acc = t
		return
	}
	c.acc.Mul(t)
}

// Add folds e(p, q) into the accumulated product.
func (c *Check) Add(q *math.G2, p *math.G1) {
	c.mul(c.curve.Pairing(q, p))
}

// AddInverse folds e(p, q)^{-1} into the accumulated product.
func (c *Check) AddInverse(q *math.G2, p *math.G1) {
	t := c.curve.Pairing(q, p)
	t.Inverse()
	c.mul(t)
}

// AddScaled folds e(p^coeff, q) into the accumulated product.
func (c *Check) AddScaled(coeff *math.Zr, q *math.G2, p *math.G1) {
	c.mul(c.curve.Pairing(q, p.Mul(coeff)))
}

// AddScaledInverse folds e(p^coeff, q)^{-1} into the accumulated product.
func (c *Check) AddScaledInverse(coeff *math.Zr, q *math.G2, p *math.G1) {
	t := c.curve.Pairing(q, p.Mul(coeff))
	t.Inverse()
	c.mul(t)
}

// Verify runs the final exponentiation and reports whether the accumulated
// product is the identity. An empty Check verifies trivially.
func (c *Check) Verify() bool {
	if c.acc == nil {
		return true
	}
	return c.curve.FExp(c.acc).IsUnity()
}

// Rand returns the curve's cryptographic randomness stream.
func Rand(curve *math.Curve) (io.Reader, error) {
	rng, err := curve.Rand()
	if err != nil {
		return nil, errors.Wrap(err, "obtain curve randomness")
	}
	return rng, nil
}
