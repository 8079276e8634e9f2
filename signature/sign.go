package signature

import (
	"io"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/commitment"
	"mimc-abc/params"
)

// ErrDimensionMismatch is returned when an attribute vector does not match
// the key's slot count. Checked before any cryptographic computation.
var ErrDimensionMismatch = commitment.ErrDimensionMismatch

// ErrSignatureInvalid is returned when a pairing verification equation does
// not hold.
var ErrSignatureInvalid = errors.New("signature verification failed")

// Signature is a randomizable signature over a committed attribute vector:
// sigma1 = g^u, sigma2 = (cm * g^x)^u for a fresh exponent u.
type Signature struct {
	Sigma1 *math.G1
	Sigma2 *math.G1
}

// Sign produces a signature over a commitment. The raw attribute vector is
// never an input here; blind issuance hands the issuer only the committed
// form.
func (sk *SecretKey) Sign(pp *params.Params, cm *commitment.Commitment, rng io.Reader) *Signature {
	u := pp.Curve.NewRandomZr(rng)
	base := cm.Cm.Copy()
	base.Add(pp.G.Mul(sk.X))
	return &Signature{
		Sigma1: pp.G.Mul(u),
		Sigma2: base.Mul(u),
	}
}

// SignAttributes commits to a plaintext vector under the given opening and
// signs the result. Used by the non-private scenarios and tests; the
// issuance handshake goes through Sign directly.
func SignAttributes(pp *params.Params, sk *SecretKey, pk *PublicKey, attrs []*math.Zr, r *math.Zr, rng io.Reader) (*Signature, error) {
	cm, err := commitment.Commit(pp, pk.Ck, pk.CkTilde, attrs, r)
	if err != nil {
		return nil, err
	}
	return sk.Sign(pp, cm, rng), nil
}

// Verify recomputes the commitment from the plaintext vector and opening and
// checks the pairing equations. Any bit-level change to the vector, opening
// or signature flips the result.
func Verify(pp *params.Params, pk *PublicKey, attrs []*math.Zr, r *math.Zr, sig *Signature) error {
	cm, err := commitment.Commit(pp, pk.Ck, pk.CkTilde, attrs, r)
	if err != nil {
		return err
	}
	return VerifyCommitment(pp, pk, cm, sig)
}

// VerifyCommitment checks e(sigma2, g~) = e(sigma1, XTilde * cm~) together
// with the commitment consistency equation. This is the verification form
// used by show proofs, where only the randomized commitment is public.
func VerifyCommitment(pp *params.Params, pk *PublicKey, cm *commitment.Commitment, sig *Signature) error {
	if sig == nil || sig.Sigma1 == nil || sig.Sigma2 == nil {
		return errors.Wrap(ErrSignatureInvalid, "nil signature")
	}
	if sig.Sigma1.IsInfinity() {
		return errors.Wrap(ErrSignatureInvalid, "sigma1 is the identity")
	}
	if err := cm.Consistent(pp); err != nil {
		return errors.Wrap(ErrSignatureInvalid, err.Error())
	}

	xcm := pp.Curve.NewG2()
	xcm.Clone(pk.XTilde)
	xcm.Add(cm.CmTilde)
	xcm.Affine()

	t1 := pp.Curve.Pairing(pp.GTilde, sig.Sigma2)
	t2 := pp.Curve.Pairing(xcm, sig.Sigma1)
	t2.Inverse()
	t1.Mul(t2)
	if !pp.Curve.FExp(t1).IsUnity() {
		return ErrSignatureInvalid
	}
	return nil
}

// Randomize re-blinds the signature so that it verifies against the
// commitment randomized with the same deltaR while being statistically
// independent of the original value.
func (sig *Signature) Randomize(deltaR, deltaU *math.Zr) *Signature {
	sigma2 := sig.Sigma2.Copy()
	sigma2.Add(sig.Sigma1.Mul(deltaR))
	return &Signature{
		Sigma1: sig.Sigma1.Mul(deltaU),
		Sigma2: sigma2.Mul(deltaU),
	}
}
