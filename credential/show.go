package credential

import (
	"io"
	"sort"
	"time"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/commitment"
	"mimc-abc/params"
	"mimc-abc/prof"
	"mimc-abc/signature"
	"mimc-abc/transcript"
)

// ErrProofInvalid is returned when a show proof's sigma or pairing equation
// does not hold.
var ErrProofInvalid = errors.New("show proof invalid")

// ErrStaleChallenge is returned when the transcript challenge does not match
// the recomputed one, indicating tampering or a wrong public key.
var ErrStaleChallenge = errors.New("stale challenge")

const showLabel = "show"

// ShowProof is a single-presentation transcript: a randomized signature and
// commitment, the disclosed attribute values in the clear, and the sigma
// protocol tying the hidden attributes and opening to the commitment.
// Responses lists one scalar per hidden slot in ascending slot order,
// followed by the response for the randomized opening.
type ShowProof struct {
	Sig       *signature.Signature
	Cm        *commitment.Commitment
	Disclosed map[int]*math.Zr
	SigmaCom  *math.G1
	Challenge *math.Zr
	Responses []*math.Zr
}

// Show builds a presentation of the credential under pk, disclosing exactly
// the attribute slots listed in disclose. The identifier slot can never be
// disclosed. Each call randomizes the signature and commitment with fresh
// exponents, so repeated presentations are unlinkable.
func (c *Credential) Show(pp *params.Params, pk *signature.PublicKey, disclose []int, rng io.Reader) (*ShowProof, error) {
	defer prof.Track(time.Now(), "credential.Show")
	slots := pk.Slots()
	if len(c.Attrs) != slots {
		return nil, errors.Wrapf(signature.ErrDimensionMismatch, "attrs=%d slots=%d", len(c.Attrs), slots)
	}
	if err := validateDisclosure(slots, disclose); err != nil {
		return nil, err
	}

	curve := pp.Curve
	deltaR := curve.NewRandomZr(rng)
	deltaU := curve.NewRandomZr(rng)

	sp := &ShowProof{
		Sig:       c.Sig.Randomize(deltaR, deltaU),
		Cm:        c.Cm.Randomize(pp, deltaR),
		Disclosed: make(map[int]*math.Zr, len(disclose)),
	}
	for _, d := range disclose {
		sp.Disclosed[d] = c.Attrs[d]
	}
	rNew := curve.ModAdd(c.R, deltaR, curve.GroupOrder)

	hidden := hiddenIndices(slots, sp.Disclosed)
	blindings := make([]*math.Zr, len(hidden)+1)
	for i := range blindings {
		blindings[i] = curve.NewRandomZr(rng)
	}
	sp.SigmaCom = sigmaCommit(pp, pk, hidden, blindings)

	sp.Challenge = showChallenge(pp, pk, sp)

	sp.Responses = make([]*math.Zr, len(hidden)+1)
	for i, slot := range hidden {
		sp.Responses[i] = curve.ModAdd(blindings[i], curve.ModMul(sp.Challenge, c.Attrs[slot], curve.GroupOrder), curve.GroupOrder)
	}
	sp.Responses[len(hidden)] = curve.ModAdd(blindings[len(hidden)], curve.ModMul(sp.Challenge, rNew, curve.GroupOrder), curve.GroupOrder)

	return sp, nil
}

// sigmaCommit computes T = prod ck_i^{rho_i} * g^{rho_r} over the hidden
// slots. The last blinding covers the opening.
func sigmaCommit(pp *params.Params, pk *signature.PublicKey, hidden []int, blindings []*math.Zr) *math.G1 {
	t := pp.G.Mul(blindings[len(hidden)])
	for i, slot := range hidden {
		t.Add(pk.Ck[slot].Mul(blindings[i]))
	}
	return t
}

func showChallenge(pp *params.Params, pk *signature.PublicKey, sp *ShowProof) *math.Zr {
	t := transcript.New(showLabel)
	pk.AppendTo(t)
	t.AppendG1("sigma1", sp.Sig.Sigma1)
	t.AppendG1("sigma2", sp.Sig.Sigma2)
	t.AppendG1("cm", sp.Cm.Cm)
	t.AppendG2("cm~", sp.Cm.CmTilde)
	t.AppendG1("T", sp.SigmaCom)
	idxs := make([]int, 0, len(sp.Disclosed))
	for i := range sp.Disclosed {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	t.AppendInt("disclosed", len(idxs))
	for _, i := range idxs {
		t.AppendInt("idx", i)
		t.AppendZr("val", sp.Disclosed[i])
	}
	return t.ChallengeZr(pp.Curve)
}

// VerifySigma checks the proof's structure, recomputes the Fiat-Shamir
// challenge and verifies the sigma equation. It does not evaluate pairings;
// VerifyShow layers those on top, and the batch verifier aggregates them
// separately.
func (sp *ShowProof) VerifySigma(pp *params.Params, pk *signature.PublicKey) error {
	if sp == nil || sp.Sig == nil || sp.Sig.Sigma1 == nil || sp.Sig.Sigma2 == nil ||
		sp.Cm == nil || sp.Cm.Cm == nil || sp.Cm.CmTilde == nil ||
		sp.SigmaCom == nil || sp.Challenge == nil {
		return errors.Wrap(ErrProofInvalid, "missing proof component")
	}
	slots := pk.Slots()
	for d, val := range sp.Disclosed {
		if d == IdentifierSlot || d < 0 || d >= slots {
			return errors.Wrapf(ErrProofInvalid, "illegal disclosed slot %d", d)
		}
		if val == nil {
			return errors.Wrapf(ErrProofInvalid, "missing disclosed value for slot %d", d)
		}
	}
	for _, s := range sp.Responses {
		if s == nil {
			return errors.Wrap(ErrProofInvalid, "missing response")
		}
	}
	hidden := hiddenIndices(slots, sp.Disclosed)
	if len(sp.Responses) != len(hidden)+1 {
		return errors.Wrapf(ErrProofInvalid, "got %d responses for %d hidden slots", len(sp.Responses), len(hidden))
	}

	if !sp.Challenge.Equals(showChallenge(pp, pk, sp)) {
		return ErrStaleChallenge
	}

	// prod ck_i^{s_i} * g^{s_r} must equal T * (cm / prod_{disclosed} ck_d^{m_d})^c.
	lhs := pp.G.Mul(sp.Responses[len(hidden)])
	for i, slot := range hidden {
		lhs.Add(pk.Ck[slot].Mul(sp.Responses[i]))
	}

	stmt := sp.Cm.Cm.Copy()
	for d, val := range sp.Disclosed {
		stmt.Sub(pk.Ck[d].Mul(val))
	}
	rhs := sp.SigmaCom.Copy()
	rhs.Add(stmt.Mul(sp.Challenge))

	if !lhs.Equals(rhs) {
		return errors.Wrap(ErrProofInvalid, "sigma equation mismatch")
	}
	return nil
}

// VerifyShow fully verifies a presentation: sigma protocol plus the pairing
// equations binding the randomized signature to the commitment.
func VerifyShow(pp *params.Params, pk *signature.PublicKey, sp *ShowProof) error {
	defer prof.Track(time.Now(), "credential.VerifyShow")
	if err := sp.VerifySigma(pp, pk); err != nil {
		return err
	}
	if err := signature.VerifyCommitment(pp, pk, sp.Cm, sp.Sig); err != nil {
		return errors.Wrap(ErrProofInvalid, err.Error())
	}
	return nil
}
