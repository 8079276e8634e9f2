package signature

import (
	"io"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/pairing"
	"mimc-abc/params"
	"mimc-abc/transcript"
)

// ErrKeyProofInvalid is returned when an issuer key well-formedness proof
// does not verify.
var ErrKeyProofInvalid = errors.New("issuer key proof invalid")

const keyProofLabel = "verkey"

// KeyProof shows that an issuer public key is well-formed over the shared
// generators: the same master exponent sits behind XTilde in both groups and
// the same slot exponent sits behind each ck_i / ck~_i pair. Holders check
// it once before requesting issuance.
type KeyProof struct {
	XComG      *math.G1
	XComGTilde *math.G2
	XResp      *math.Zr
	T1         []*math.G1
	T2         []*math.G2
	Resp       []*math.Zr
	Challenge  *math.Zr
}

// ProveKey builds the key well-formedness proof for sk's public key.
func ProveKey(pp *params.Params, sk *SecretKey, pk *PublicKey, rng io.Reader) *KeyProof {
	curve := pp.Curve
	slots := pk.Slots()

	xBlinding := curve.NewRandomZr(rng)
	proof := &KeyProof{
		XComG:      pp.G.Mul(xBlinding),
		XComGTilde: pp.GTilde.Mul(xBlinding),
		T1:         make([]*math.G1, slots),
		T2:         make([]*math.G2, slots),
		Resp:       make([]*math.Zr, slots),
	}

	blindings := make([]*math.Zr, slots)
	for i := 0; i < slots; i++ {
		blindings[i] = curve.NewRandomZr(rng)
		proof.T1[i] = pp.G.Mul(blindings[i])
		proof.T2[i] = pp.GTilde.Mul(blindings[i])
	}

	proof.Challenge = keyProofChallenge(pp, pk, proof)

	proof.XResp = curve.ModAdd(xBlinding, curve.ModMul(proof.Challenge, sk.X, curve.GroupOrder), curve.GroupOrder)
	for i := 0; i < slots; i++ {
		proof.Resp[i] = curve.ModAdd(blindings[i], curve.ModMul(proof.Challenge, sk.Ys[i], curve.GroupOrder), curve.GroupOrder)
	}
	return proof
}

func keyProofChallenge(pp *params.Params, pk *PublicKey, proof *KeyProof) *math.Zr {
	t := transcript.New(keyProofLabel)
	t.AppendG1("g", pp.G)
	t.AppendG2("g~", pp.GTilde)
	pk.AppendTo(t)
	t.AppendG1("xcom", proof.XComG)
	t.AppendG2("xcom~", proof.XComGTilde)
	for i := range proof.T1 {
		t.AppendG1("t1", proof.T1[i])
		t.AppendG2("t2", proof.T2[i])
	}
	return t.ChallengeZr(pp.Curve)
}

// Verify checks the key well-formedness proof against pk.
func (proof *KeyProof) Verify(pp *params.Params, pk *PublicKey) error {
	curve := pp.Curve
	slots := pk.Slots()
	if len(proof.T1) != slots || len(proof.T2) != slots || len(proof.Resp) != slots {
		return errors.Wrap(ErrKeyProofInvalid, "component length mismatch")
	}
	if !proof.Challenge.Equals(keyProofChallenge(pp, pk, proof)) {
		return errors.Wrap(ErrKeyProofInvalid, "challenge mismatch")
	}

	// Schnorr for the master exponent on the G2 side.
	lhs := pp.GTilde.Mul(proof.XResp)
	rhs := curve.NewG2()
	rhs.Clone(proof.XComGTilde)
	rhs.Add(pk.XTilde.Mul(proof.Challenge))
	rhs.Affine()
	if !lhs.Equals(rhs) {
		return errors.Wrap(ErrKeyProofInvalid, "master exponent equation")
	}

	check := pairing.NewCheck(curve)
	// Same blinding in both groups: e(xcom, g~) = e(g, xcom~).
	check.Add(pp.GTilde, proof.XComG)
	check.AddInverse(proof.XComGTilde, pp.G)

	for i := 0; i < slots; i++ {
		lhs := pp.GTilde.Mul(proof.Resp[i])
		rhs := curve.NewG2()
		rhs.Clone(proof.T2[i])
		rhs.Add(pk.CkTilde[i].Mul(proof.Challenge))
		rhs.Affine()
		if !lhs.Equals(rhs) {
			return errors.Wrapf(ErrKeyProofInvalid, "slot %d exponent equation", i)
		}
		// Same blinding in both groups, and the same slot exponent
		// behind both bases.
		check.Add(pp.GTilde, proof.T1[i])
		check.AddInverse(proof.T2[i], pp.G)
		check.Add(pp.GTilde, pk.Ck[i])
		check.AddInverse(pk.CkTilde[i], pp.G)
	}
	if !check.Verify() {
		return errors.Wrap(ErrKeyProofInvalid, "cross-group pairing equations")
	}
	return nil
}
