// Package commitment implements the dual-group Pedersen commitment the
// credential scheme signs. A commitment lives in both source groups so that
// the signature verification equation can consume it on the G2 side while
// sigma protocols operate on the G1 side; the pairing consistency check ties
// the two halves to the same exponent vector.
package commitment

import (
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/params"
)

// ErrDimensionMismatch signals an attribute vector whose length does not
// match the commitment key it is paired with.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// ErrInconsistent signals a commitment whose G1 and G2 halves do not open to
// the same exponent vector.
var ErrInconsistent = errors.New("commitment halves inconsistent")

// Commitment is a hiding, binding commitment to an attribute vector,
// computed in both source groups with the same exponents.
type Commitment struct {
	Cm      *math.G1
	CmTilde *math.G2
}

// Commit computes cm = prod ck_i^{m_i} * g^r in G1 and its G2 counterpart.
// Base slices are the issuer's slot bases; slot 0 carries the holder
// identifier by convention.
func Commit(pp *params.Params, ck []*math.G1, ckTilde []*math.G2, attrs []*math.Zr, r *math.Zr) (*Commitment, error) {
	if len(attrs) != len(ck) || len(ck) != len(ckTilde) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "attrs=%d ck=%d", len(attrs), len(ck))
	}
	cm := pp.G.Mul(r)
	for i := range attrs {
		cm.Add(ck[i].Mul(attrs[i]))
	}

	cmTilde := pp.Curve.NewG2()
	cmTilde.Clone(pp.GTilde.Mul(r))
	for i := range attrs {
		cmTilde.Add(ckTilde[i].Mul(attrs[i]))
	}
	cmTilde.Affine()

	return &Commitment{Cm: cm, CmTilde: cmTilde}, nil
}

// Randomize shifts the commitment opening by deltaR in both groups. The
// result opens to the same attribute vector with randomness r + deltaR.
func (c *Commitment) Randomize(pp *params.Params, deltaR *math.Zr) *Commitment {
	cm := c.Cm.Copy()
	cm.Add(pp.G.Mul(deltaR))

	cmTilde := pp.Curve.NewG2()
	cmTilde.Clone(c.CmTilde)
	cmTilde.Add(pp.GTilde.Mul(deltaR))
	cmTilde.Affine()

	return &Commitment{Cm: cm, CmTilde: cmTilde}
}

// Consistent checks e(cm, g~) = e(g, cm~), i.e. that both halves hide the
// same exponent vector. Run before any sigma-protocol work so that foreign
// group elements are rejected deterministically.
func (c *Commitment) Consistent(pp *params.Params) error {
	if c == nil || c.Cm == nil || c.CmTilde == nil {
		return errors.Wrap(ErrInconsistent, "nil commitment")
	}
	t1 := pp.Curve.Pairing(pp.GTilde, c.Cm)
	t2 := pp.Curve.Pairing(c.CmTilde, pp.G)
	t2.Inverse()
	t1.Mul(t2)
	if !pp.Curve.FExp(t1).IsUnity() {
		return ErrInconsistent
	}
	return nil
}
