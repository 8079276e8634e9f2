// Package batch amortizes signature verification over many credentials.
// Each credential contributes two pairing equations (the signature relation
// and the commitment consistency relation); scaling every equation by a
// fresh uniform coefficient and multiplying them lets one final
// exponentiation stand in for 4m pairings checked pairwise.
package batch

import (
	"io"
	"time"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/credential"
	"mimc-abc/pairing"
	"mimc-abc/params"
	"mimc-abc/prof"
	"mimc-abc/signature"
)

// ErrEmptyBatch is returned when there is nothing to verify. An empty
// batch is a caller bug, not a vacuous success.
var ErrEmptyBatch = errors.New("empty batch")

// Verify checks all credentials under one issuer key with a single merged
// pairing check. A failing aggregate only reports that some credential is
// invalid; use FindInvalid to identify culprits.
func Verify(pp *params.Params, pk *signature.PublicKey, creds []*credential.Credential, rng io.Reader) error {
	defer prof.Track(time.Now(), "batch.Verify")
	if len(creds) == 0 {
		return ErrEmptyBatch
	}

	curve := pp.Curve
	check := pairing.NewCheck(curve)
	for i, c := range creds {
		if err := addCredential(pp, pk, check, c, rng); err != nil {
			return errors.Wrapf(err, "credential %d", i)
		}
	}
	if !check.Verify() {
		return errors.Wrap(signature.ErrSignatureInvalid, "aggregate check failed")
	}
	return nil
}

// FindInvalid falls back to per-credential verification and returns the
// indices that fail, in order. Intended for diagnostics after a failing
// aggregate; it costs m full verifications.
func FindInvalid(pp *params.Params, pk *signature.PublicKey, creds []*credential.Credential) []int {
	var bad []int
	for i, c := range creds {
		if err := c.Verify(pp, pk); err != nil {
			bad = append(bad, i)
		}
	}
	return bad
}

func addCredential(pp *params.Params, pk *signature.PublicKey, check *pairing.Check, c *credential.Credential, rng io.Reader) error {
	if len(c.Attrs) != pk.Slots() {
		return signature.ErrDimensionMismatch
	}
	return addEquations(pp, pk, check, c.Cm.Cm, c.Cm.CmTilde, c.Sig, rng)
}

// addEquations folds the two relations for one (commitment, signature)
// pair into the accumulator, each under its own coefficient:
//
//	e(sigma2, g~) = e(sigma1, X~ * cm~)
//	e(cm, g~)     = e(g, cm~)
func addEquations(pp *params.Params, pk *signature.PublicKey, check *pairing.Check, cm *math.G1, cmTilde *math.G2, sig *signature.Signature, rng io.Reader) error {
	curve := pp.Curve
	if sig == nil || sig.Sigma1 == nil || sig.Sigma2 == nil || sig.Sigma1.IsInfinity() {
		return errors.Wrap(signature.ErrSignatureInvalid, "degenerate signature")
	}

	xcm := curve.NewG2()
	xcm.Clone(pk.XTilde)
	xcm.Add(cmTilde)
	xcm.Affine()

	rho := curve.NewRandomZr(rng)
	check.AddScaled(rho, pp.GTilde, sig.Sigma2)
	check.AddScaledInverse(rho, xcm, sig.Sigma1)

	rho = curve.NewRandomZr(rng)
	check.AddScaled(rho, pp.GTilde, cm)
	check.AddScaledInverse(rho, cmTilde, pp.G)
	return nil
}

// AggregatePresentation is a set of show proofs against one issuer key.
// With a shared key the pairing halves of the proofs can be batched; sets
// spanning issuers must be verified one by one.
type AggregatePresentation struct {
	Proofs []*credential.ShowProof
}

// VerifyAll verifies every proof independently.
func (a *AggregatePresentation) VerifyAll(pp *params.Params, pk *signature.PublicKey) error {
	defer prof.Track(time.Now(), "batch.VerifyAll")
	if len(a.Proofs) == 0 {
		return ErrEmptyBatch
	}
	for i, sp := range a.Proofs {
		if err := credential.VerifyShow(pp, pk, sp); err != nil {
			return errors.Wrapf(err, "presentation %d", i)
		}
	}
	return nil
}

// BatchVerify checks each proof's sigma protocol individually, then merges
// all pairing equations into one accumulated check.
func (a *AggregatePresentation) BatchVerify(pp *params.Params, pk *signature.PublicKey, rng io.Reader) error {
	defer prof.Track(time.Now(), "batch.BatchVerify")
	if len(a.Proofs) == 0 {
		return ErrEmptyBatch
	}

	check := pairing.NewCheck(pp.Curve)
	for i, sp := range a.Proofs {
		if err := sp.VerifySigma(pp, pk); err != nil {
			return errors.Wrapf(err, "presentation %d", i)
		}
		if err := addEquations(pp, pk, check, sp.Cm.Cm, sp.Cm.CmTilde, sp.Sig, rng); err != nil {
			return errors.Wrapf(err, "presentation %d", i)
		}
	}
	if !check.Verify() {
		return errors.Wrap(credential.ErrProofInvalid, "aggregate check failed")
	}
	return nil
}
