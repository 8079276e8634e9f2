// Package params holds the shared group description every issuer signs
// against: one pairing curve and one generator pair (g, g~). Issuer keys are
// independent values over these parameters.
package params

import (
	"crypto/sha256"
	"encoding/binary"

	math "github.com/IBM/mathlib"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/pkg/errors"
)

// Params is the deployment-wide public parameter set. Immutable once created.
type Params struct {
	Curve  *math.Curve
	G      *math.G1
	GTilde *math.G2
}

const domainTag = "mimc-abc"

// Default returns parameters over BN254 with deterministically derived
// generators, so that independently bootstrapped parties agree on them.
func Default() (*Params, error) {
	return New(math.Curves[math.BN254])
}

// New derives the generator pair for the given curve from fixed
// domain-separation labels.
func New(curve *math.Curve) (*Params, error) {
	gTilde, err := pseudoRandomG2(curve)
	if err != nil {
		return nil, err
	}
	return &Params{
		Curve:  curve,
		G:      pseudoRandomG1(curve, "G", 0),
		GTilde: gTilde,
	}, nil
}

func pseudoRandomG1(curve *math.Curve, label string, index int) *math.G1 {
	buff := make([]byte, 0, 2*len(domainTag))
	buff = append(buff, []byte(domainTag)...)
	buff = append(buff, []byte(label)...)
	n := make([]byte, 2)
	binary.BigEndian.PutUint16(n, uint16(index))
	buff = append(buff, n...)
	digest := sha256.Sum256(buff)
	return curve.HashToG1(digest[:])
}

// mathlib exposes no hash-to-G2, so the G2 generator is derived through the
// underlying gnark curve and re-imported.
func pseudoRandomG2(curve *math.Curve) (*math.G2, error) {
	g2, err := bn254.HashToG2([]byte(domainTag), []byte("GTilde"))
	if err != nil {
		return nil, errors.Wrap(err, "hash to G2")
	}
	raw := g2.Bytes()
	g, err := curve.NewG2FromBytes(raw[:])
	if err != nil {
		return nil, errors.Wrap(err, "import G2 generator")
	}
	return g, nil
}
