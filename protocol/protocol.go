// Package protocol ties the primitive packages into the credential
// lifecycle: system setup, issuer registration, the blind issuance
// handshake, selective showing and cross-issuer linked showing.
package protocol

import (
	"io"
	"log"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/binding"
	"mimc-abc/credential"
	"mimc-abc/issuance"
	"mimc-abc/params"
	"mimc-abc/signature"
)

// ErrUnknownIssuer is returned when an issuer ID is not in the registry.
var ErrUnknownIssuer = errors.New("unknown issuer")

// Protocol is a thin façade over one set of public parameters and a single
// issuer key. Multi-issuer deployments use System instead.
type Protocol struct {
	PP *params.Params
}

// Setup derives public parameters for the curve and generates an issuer
// keypair with the given number of attribute slots.
func Setup(curve *math.Curve, slots int, rng io.Reader) (*Protocol, *signature.SecretKey, *signature.PublicKey, error) {
	pp, err := params.New(curve)
	if err != nil {
		return nil, nil, nil, err
	}
	sk, pk, err := signature.KeyGen(pp, slots, rng)
	if err != nil {
		return nil, nil, nil, err
	}
	return &Protocol{PP: pp}, sk, pk, nil
}

// Obtain starts the blind issuance handshake on the holder side.
func (p *Protocol) Obtain(pk *signature.PublicKey, attrs []*math.Zr, rng io.Reader) (*issuance.Request, *issuance.Pending, error) {
	return issuance.NewRequest(p.PP, pk, attrs, rng)
}

// Issue runs the issuer side of the handshake.
func (p *Protocol) Issue(pk *signature.PublicKey, sk *signature.SecretKey, req *issuance.Request, rng io.Reader) (*signature.Signature, error) {
	return issuance.Issue(p.PP, pk, sk, req, rng)
}

// Show produces a selective-disclosure proof for the credential.
func (p *Protocol) Show(pk *signature.PublicKey, cred *credential.Credential, disclose []int, rng io.Reader) (*credential.ShowProof, error) {
	return cred.Show(p.PP, pk, disclose, rng)
}

// VerifyShow verifies a selective-disclosure proof.
func (p *Protocol) VerifyShow(pk *signature.PublicKey, sp *credential.ShowProof) error {
	return credential.VerifyShow(p.PP, pk, sp)
}

// ProveKey produces a proof of knowledge of the issuer secret key.
func (p *Protocol) ProveKey(sk *signature.SecretKey, pk *signature.PublicKey, rng io.Reader) *signature.KeyProof {
	return signature.ProveKey(p.PP, sk, pk, rng)
}

// VerifyKey verifies an issuer key proof.
func (p *Protocol) VerifyKey(pk *signature.PublicKey, proof *signature.KeyProof) error {
	return proof.Verify(p.PP, pk)
}

// Issuer is a registered signer: an identifier plus its keypair.
type Issuer struct {
	ID string
	SK *signature.SecretKey
	PK *signature.PublicKey
}

// System is an issuer registry over shared public parameters.
type System struct {
	PP      *params.Params
	issuers map[string]*Issuer
}

// NewSystem returns an empty registry over the given parameters.
func NewSystem(pp *params.Params) *System {
	return &System{PP: pp, issuers: make(map[string]*Issuer)}
}

// AddIssuer generates a keypair with the given slot count and registers it
// under the ID, replacing any previous entry.
func (s *System) AddIssuer(id string, slots int, rng io.Reader) (*Issuer, error) {
	sk, pk, err := signature.KeyGen(s.PP, slots, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "issuer %q", id)
	}
	iss := &Issuer{ID: id, SK: sk, PK: pk}
	s.issuers[id] = iss
	log.Printf("[protocol] registered issuer %q with %d attribute slots", id, slots)
	return iss, nil
}

// Issuer looks up a registered issuer by ID.
func (s *System) Issuer(id string) (*Issuer, error) {
	iss, ok := s.issuers[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownIssuer, "%q", id)
	}
	return iss, nil
}

// Holder owns an identifier scalar and the credentials bound to it, keyed
// by issuer ID.
type Holder struct {
	ID    *math.Zr
	creds map[string]*credential.Credential
}

// NewHolder draws a fresh holder identifier.
func NewHolder(curve *math.Curve, rng io.Reader) *Holder {
	return &Holder{
		ID:    curve.NewRandomZr(rng),
		creds: make(map[string]*credential.Credential),
	}
}

// ObtainCredential runs the full blind handshake against the issuer. The
// holder identifier is prepended as slot 0, so attrs fills the remaining
// slots.
func (h *Holder) ObtainCredential(pp *params.Params, iss *Issuer, attrs []*math.Zr, rng io.Reader) (*credential.Credential, error) {
	full := make([]*math.Zr, 0, len(attrs)+1)
	full = append(full, h.ID)
	full = append(full, attrs...)

	req, pending, err := issuance.NewRequest(pp, iss.PK, full, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "issuer %q", iss.ID)
	}
	sig, err := issuance.Issue(pp, iss.PK, iss.SK, req, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "issuer %q", iss.ID)
	}
	cred, err := pending.Complete(sig)
	if err != nil {
		return nil, errors.Wrapf(err, "issuer %q", iss.ID)
	}
	h.creds[iss.ID] = cred
	return cred, nil
}

// Credential returns the holder's credential from the given issuer.
func (h *Holder) Credential(issuerID string) (*credential.Credential, bool) {
	c, ok := h.creds[issuerID]
	return c, ok
}

// ShowLinked builds an identity-binding bundle over the holder's
// credentials from the named issuers, in order. The returned key list is
// what the verifier needs alongside the proof.
func (h *Holder) ShowLinked(s *System, issuerIDs []string, rng io.Reader) (*binding.Proof, []*signature.PublicKey, error) {
	pks := make([]*signature.PublicKey, 0, len(issuerIDs))
	creds := make([]*credential.Credential, 0, len(issuerIDs))
	for _, id := range issuerIDs {
		iss, err := s.Issuer(id)
		if err != nil {
			return nil, nil, err
		}
		c, ok := h.creds[id]
		if !ok {
			return nil, nil, errors.Errorf("no credential from issuer %q", id)
		}
		pks = append(pks, iss.PK)
		creds = append(creds, c)
	}
	proof, err := binding.Prove(s.PP, pks, creds, rng)
	if err != nil {
		return nil, nil, err
	}
	return proof, pks, nil
}

// VerifyLinked verifies an identity-binding bundle against the issuer keys.
func VerifyLinked(pp *params.Params, pks []*signature.PublicKey, proof *binding.Proof) error {
	return binding.Verify(pp, pks, proof)
}
