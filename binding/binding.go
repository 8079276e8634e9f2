// Package binding implements the cross-issuer identity-binding proof: one
// show proof per credential, all keeping the identifier slot hidden, linked
// by an equality argument showing every constituent commitment hides the
// same identifier scalar.
//
// The equality argument is the shared-blinding sigma trick: every
// per-credential Schnorr commitment uses one common blinding scalar at the
// identifier slot, and the whole bundle shares a single Fiat-Shamir
// challenge. The identifier responses are then equal iff the committed
// identifiers are, which the verifier checks directly.
package binding

import (
	"io"
	"sync"
	"time"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/commitment"
	"mimc-abc/credential"
	"mimc-abc/pairing"
	"mimc-abc/params"
	"mimc-abc/prof"
	"mimc-abc/signature"
	"mimc-abc/transcript"
)

// ErrBindingFailed is returned when any constituent proof or the equality
// argument fails. The wrap message carries the failing credential index.
var ErrBindingFailed = errors.New("identity binding failed")

const bindingLabel = "identity-binding"

// Leg is the per-credential portion of a binding proof: a randomized
// signature and commitment plus a sigma proof over every attribute slot.
// Responses holds one scalar per slot in slot order, then one for the
// opening; the identifier response sits at index 0.
type Leg struct {
	Sig       *signature.Signature
	Cm        *commitment.Commitment
	SigmaCom  *math.G1
	Responses []*math.Zr
}

// Proof is an atomic bundle of k legs under one shared challenge. It is
// verified as a whole; there is no partial verification.
type Proof struct {
	Legs      []Leg
	Challenge *math.Zr
}

// legState carries phase-1 output until the shared challenge is known.
type legState struct {
	sig       *signature.Signature
	cm        *commitment.Commitment
	sigmaCom  *math.G1
	blindings []*math.Zr
	rNew      *math.Zr
}

// Prove builds an identity-binding bundle over the holder's credentials,
// one per public key. The identifier slot stays hidden in every leg.
// Credentials carrying different identifiers still produce a bundle; it is
// the verifier's equality argument that rejects it.
func Prove(pp *params.Params, pks []*signature.PublicKey, creds []*credential.Credential, rng io.Reader) (*Proof, error) {
	defer prof.Track(time.Now(), "binding.Prove")
	k := len(creds)
	if k == 0 {
		return nil, errors.Wrap(ErrBindingFailed, "no credentials")
	}
	if len(pks) != k {
		return nil, errors.Wrapf(ErrBindingFailed, "%d credentials but %d public keys", k, len(pks))
	}
	for i, c := range creds {
		if len(c.Attrs) != pks[i].Slots() {
			return nil, errors.Wrapf(signature.ErrDimensionMismatch, "credential %d", i)
		}
	}

	curve := pp.Curve
	sharedBlinding := curve.NewRandomZr(rng)

	// Phase 1: per-credential randomization and sigma commitments are
	// mutually independent, so they run concurrently. Each worker draws
	// from its own randomness stream.
	states := make([]*legState, k)
	errs := make([]error, k)
	var wg sync.WaitGroup
	for i := range creds {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			workerRng, err := pairing.Rand(curve)
			if err != nil {
				errs[i] = err
				return
			}
			states[i] = prepareLeg(pp, pks[i], creds[i], sharedBlinding, workerRng)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "credential %d", i)
		}
	}

	// Phase 2: one challenge over the full bundle, then all responses.
	proof := &Proof{Legs: make([]Leg, k)}
	for i, st := range states {
		proof.Legs[i] = Leg{Sig: st.sig, Cm: st.cm, SigmaCom: st.sigmaCom}
	}
	proof.Challenge = bindingChallenge(pp, pks, proof)

	for i, st := range states {
		slots := pks[i].Slots()
		resp := make([]*math.Zr, slots+1)
		for j := 0; j < slots; j++ {
			resp[j] = curve.ModAdd(st.blindings[j], curve.ModMul(proof.Challenge, creds[i].Attrs[j], curve.GroupOrder), curve.GroupOrder)
		}
		resp[slots] = curve.ModAdd(st.blindings[slots], curve.ModMul(proof.Challenge, st.rNew, curve.GroupOrder), curve.GroupOrder)
		proof.Legs[i].Responses = resp
	}
	return proof, nil
}

func prepareLeg(pp *params.Params, pk *signature.PublicKey, cred *credential.Credential, sharedBlinding *math.Zr, rng io.Reader) *legState {
	curve := pp.Curve
	slots := pk.Slots()

	deltaR := curve.NewRandomZr(rng)
	deltaU := curve.NewRandomZr(rng)

	st := &legState{
		sig:       cred.Sig.Randomize(deltaR, deltaU),
		cm:        cred.Cm.Randomize(pp, deltaR),
		rNew:      curve.ModAdd(cred.R, deltaR, curve.GroupOrder),
		blindings: make([]*math.Zr, slots+1),
	}
	st.blindings[credential.IdentifierSlot] = sharedBlinding
	for j := 1; j <= slots; j++ {
		st.blindings[j] = curve.NewRandomZr(rng)
	}

	st.sigmaCom = pp.G.Mul(st.blindings[slots])
	for j := 0; j < slots; j++ {
		st.sigmaCom.Add(pk.Ck[j].Mul(st.blindings[j]))
	}
	return st
}

func bindingChallenge(pp *params.Params, pks []*signature.PublicKey, proof *Proof) *math.Zr {
	t := transcript.New(bindingLabel)
	t.AppendInt("k", len(proof.Legs))
	for i := range proof.Legs {
		pks[i].AppendTo(t)
		leg := &proof.Legs[i]
		t.AppendG1("sigma1", leg.Sig.Sigma1)
		t.AppendG1("sigma2", leg.Sig.Sigma2)
		t.AppendG1("cm", leg.Cm.Cm)
		t.AppendG2("cm~", leg.Cm.CmTilde)
		t.AppendG1("T", leg.SigmaCom)
	}
	return t.ChallengeZr(pp.Curve)
}

// Verify checks the whole bundle: every leg's sigma and pairing equations
// under its issuer key, then the identifier equality argument. Any failure
// rejects the bundle.
func Verify(pp *params.Params, pks []*signature.PublicKey, proof *Proof) error {
	defer prof.Track(time.Now(), "binding.Verify")
	k := len(proof.Legs)
	if k == 0 || len(pks) != k {
		return errors.Wrapf(ErrBindingFailed, "%d legs but %d public keys", k, len(pks))
	}
	if proof.Challenge == nil {
		return errors.Wrap(ErrBindingFailed, "missing challenge")
	}
	for i := range proof.Legs {
		leg := &proof.Legs[i]
		if leg.Sig == nil || leg.Sig.Sigma1 == nil || leg.Sig.Sigma2 == nil ||
			leg.Cm == nil || leg.Cm.Cm == nil || leg.Cm.CmTilde == nil || leg.SigmaCom == nil {
			return errors.Wrapf(ErrBindingFailed, "credential %d: missing proof component", i)
		}
	}
	if !proof.Challenge.Equals(bindingChallenge(pp, pks, proof)) {
		return errors.Wrap(ErrBindingFailed, "stale challenge")
	}

	for i := range proof.Legs {
		if err := verifyLeg(pp, pks[i], &proof.Legs[i], proof.Challenge); err != nil {
			return errors.Wrapf(ErrBindingFailed, "credential %d: %v", i, err)
		}
	}

	// Equality argument: shared blinding plus shared challenge makes the
	// identifier responses equal iff the hidden identifiers are.
	first := proof.Legs[0].Responses[credential.IdentifierSlot]
	for i := 1; i < k; i++ {
		if !proof.Legs[i].Responses[credential.IdentifierSlot].Equals(first) {
			return errors.Wrapf(ErrBindingFailed, "credential %d: identifier responses diverge", i)
		}
	}
	return nil
}

func verifyLeg(pp *params.Params, pk *signature.PublicKey, leg *Leg, challenge *math.Zr) error {
	slots := pk.Slots()
	if len(leg.Responses) != slots+1 {
		return errors.Errorf("got %d responses for %d slots", len(leg.Responses), slots)
	}
	for _, s := range leg.Responses {
		if s == nil {
			return errors.New("missing response")
		}
	}

	lhs := pp.G.Mul(leg.Responses[slots])
	for j := 0; j < slots; j++ {
		lhs.Add(pk.Ck[j].Mul(leg.Responses[j]))
	}
	rhs := leg.SigmaCom.Copy()
	rhs.Add(leg.Cm.Cm.Mul(challenge))
	if !lhs.Equals(rhs) {
		return errors.New("sigma equation mismatch")
	}

	return signature.VerifyCommitment(pp, pk, leg.Cm, leg.Sig)
}
