// Package signature implements the randomizable multi-attribute signature
// scheme at the core of the credential system. An issuer key covers a fixed
// number of attribute slots over the shared public parameters; slot 0 is
// reserved for the holder identifier.
package signature

import (
	"io"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/transcript"

	"mimc-abc/params"
)

// SecretKey holds one exponent per attribute slot plus the master signing
// exponent. Never shared; read-only after generation.
type SecretKey struct {
	X  *math.Zr
	Ys []*math.Zr
}

// PublicKey is the verification side of an issuer key: the master element
// in G2 and the slot bases in both groups (ck_i = g^{y_i}, ck~_i = g~^{y_i}).
type PublicKey struct {
	XTilde  *math.G2
	Ck      []*math.G1
	CkTilde []*math.G2
}

// Slots returns the number of attribute slots the key covers.
func (pk *PublicKey) Slots() int {
	return len(pk.Ck)
}

// AppendTo binds the public key into a Fiat-Shamir transcript.
func (pk *PublicKey) AppendTo(t *transcript.Transcript) {
	t.AppendInt("slots", pk.Slots())
	t.AppendG2("XTilde", pk.XTilde)
	for i := range pk.Ck {
		t.AppendG1("ck", pk.Ck[i])
		t.AppendG2("ck~", pk.CkTilde[i])
	}
}

// KeyGen draws a fresh issuer key pair covering the given number of
// attribute slots. Fails only if the randomness source does.
func KeyGen(pp *params.Params, slots int, rng io.Reader) (*SecretKey, *PublicKey, error) {
	if slots < 1 {
		return nil, nil, errors.Errorf("keygen: need at least one attribute slot, got %d", slots)
	}

	sk := &SecretKey{
		X:  pp.Curve.NewRandomZr(rng),
		Ys: make([]*math.Zr, slots),
	}
	pk := &PublicKey{
		XTilde:  pp.GTilde.Mul(sk.X),
		Ck:      make([]*math.G1, slots),
		CkTilde: make([]*math.G2, slots),
	}
	for i := 0; i < slots; i++ {
		sk.Ys[i] = pp.Curve.NewRandomZr(rng)
		pk.Ck[i] = pp.G.Mul(sk.Ys[i])
		pk.CkTilde[i] = pp.GTilde.Mul(sk.Ys[i])
	}
	return sk, pk, nil
}
