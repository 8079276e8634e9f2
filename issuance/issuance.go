// Package issuance implements the blind issuance handshake. The holder
// commits to its attribute vector and proves knowledge of an opening; the
// issuer signs the committed form without ever seeing the attributes or the
// opening.
package issuance

import (
	"io"
	"log"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/commitment"
	"mimc-abc/credential"
	"mimc-abc/params"
	"mimc-abc/signature"
	"mimc-abc/transcript"
)

// ErrInvalidCommitment is returned by Issue when the request's commitment or
// its well-formedness proof does not verify.
var ErrInvalidCommitment = errors.New("invalid commitment")

const requestLabel = "issuance-request"

// Request is what the holder sends to the issuer: the committed attribute
// vector and a proof of knowledge of an opening.
type Request struct {
	Cm        *commitment.Commitment
	SigmaCom  *math.G1
	Challenge *math.Zr
	Responses []*math.Zr
}

// Pending is the holder's private state between sending a Request and
// receiving the issuer's signature.
type Pending struct {
	pp    *params.Params
	pk    *signature.PublicKey
	attrs []*math.Zr
	r     *math.Zr
	cm    *commitment.Commitment
}

// NewRequest commits to the attribute vector with fresh randomness and
// attaches the opening proof. Returns the wire request and the holder state
// needed to complete issuance.
func NewRequest(pp *params.Params, pk *signature.PublicKey, attrs []*math.Zr, rng io.Reader) (*Request, *Pending, error) {
	curve := pp.Curve
	r := curve.NewRandomZr(rng)
	cm, err := commitment.Commit(pp, pk.Ck, pk.CkTilde, attrs, r)
	if err != nil {
		return nil, nil, err
	}

	// Schnorr over bases (ck_0 .. ck_{n-1}, g) for witnesses (attrs, r).
	blindings := make([]*math.Zr, len(attrs)+1)
	for i := range blindings {
		blindings[i] = curve.NewRandomZr(rng)
	}
	sigmaCom := pp.G.Mul(blindings[len(attrs)])
	for i := range attrs {
		sigmaCom.Add(pk.Ck[i].Mul(blindings[i]))
	}

	req := &Request{Cm: cm, SigmaCom: sigmaCom}
	req.Challenge = requestChallenge(pp, pk, req)

	req.Responses = make([]*math.Zr, len(attrs)+1)
	for i := range attrs {
		req.Responses[i] = curve.ModAdd(blindings[i], curve.ModMul(req.Challenge, attrs[i], curve.GroupOrder), curve.GroupOrder)
	}
	req.Responses[len(attrs)] = curve.ModAdd(blindings[len(attrs)], curve.ModMul(req.Challenge, r, curve.GroupOrder), curve.GroupOrder)

	pending := &Pending{pp: pp, pk: pk, attrs: attrs, r: r, cm: cm}
	return req, pending, nil
}

func requestChallenge(pp *params.Params, pk *signature.PublicKey, req *Request) *math.Zr {
	t := transcript.New(requestLabel)
	pk.AppendTo(t)
	t.AppendG1("cm", req.Cm.Cm)
	t.AppendG2("cm~", req.Cm.CmTilde)
	t.AppendG1("T", req.SigmaCom)
	return t.ChallengeZr(pp.Curve)
}

// VerifyRequest checks the commitment's consistency and the opening proof.
func VerifyRequest(pp *params.Params, pk *signature.PublicKey, req *Request) error {
	if len(req.Responses) != pk.Slots()+1 {
		return errors.Wrapf(ErrInvalidCommitment, "got %d responses for %d slots", len(req.Responses), pk.Slots())
	}
	if err := req.Cm.Consistent(pp); err != nil {
		return errors.Wrap(ErrInvalidCommitment, err.Error())
	}
	if !req.Challenge.Equals(requestChallenge(pp, pk, req)) {
		return errors.Wrap(ErrInvalidCommitment, "challenge mismatch")
	}

	lhs := pp.G.Mul(req.Responses[pk.Slots()])
	for i := 0; i < pk.Slots(); i++ {
		lhs.Add(pk.Ck[i].Mul(req.Responses[i]))
	}
	rhs := req.SigmaCom.Copy()
	rhs.Add(req.Cm.Cm.Mul(req.Challenge))
	if !lhs.Equals(rhs) {
		return errors.Wrap(ErrInvalidCommitment, "opening proof equation mismatch")
	}
	return nil
}

// Issue verifies the request and signs the committed vector. The issuer
// learns nothing about the attributes beyond the proof's validity.
func Issue(pp *params.Params, pk *signature.PublicKey, sk *signature.SecretKey, req *Request, rng io.Reader) (*signature.Signature, error) {
	if err := VerifyRequest(pp, pk, req); err != nil {
		return nil, err
	}
	log.Printf("[issuance] request verified, signing committed vector (%d slots)", pk.Slots())
	return sk.Sign(pp, req.Cm, rng), nil
}

// Complete checks the issuer's signature against the holder's plaintext
// vector and assembles the credential.
func (p *Pending) Complete(sig *signature.Signature) (*credential.Credential, error) {
	if err := signature.VerifyCommitment(p.pp, p.pk, p.cm, sig); err != nil {
		return nil, err
	}
	return &credential.Credential{
		Attrs: p.attrs,
		R:     p.r,
		Cm:    p.cm,
		Sig:   sig,
	}, nil
}
