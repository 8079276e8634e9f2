package binding

import (
	"errors"
	"io"
	"testing"

	math "github.com/IBM/mathlib"

	"mimc-abc/commitment"
	"mimc-abc/credential"
	"mimc-abc/params"
	"mimc-abc/signature"
)

type testIssuer struct {
	sk *signature.SecretKey
	pk *signature.PublicKey
}

func testSetup(t *testing.T, issuers, slots int) (*params.Params, []*testIssuer, io.Reader) {
	t.Helper()
	pp, err := params.Default()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	rng, err := pp.Curve.Rand()
	if err != nil {
		t.Fatalf("rng: %v", err)
	}
	out := make([]*testIssuer, issuers)
	for i := range out {
		sk, pk, err := signature.KeyGen(pp, slots, rng)
		if err != nil {
			t.Fatalf("keygen %d: %v", i, err)
		}
		out[i] = &testIssuer{sk: sk, pk: pk}
	}
	return pp, out, rng
}

func issueWithIdentifier(t *testing.T, pp *params.Params, iss *testIssuer, id *math.Zr, rng io.Reader) *credential.Credential {
	t.Helper()
	attrs := make([]*math.Zr, iss.pk.Slots())
	attrs[credential.IdentifierSlot] = id
	for i := 1; i < len(attrs); i++ {
		attrs[i] = pp.Curve.NewRandomZr(rng)
	}
	r := pp.Curve.NewRandomZr(rng)
	cm, err := commitment.Commit(pp, iss.pk.Ck, iss.pk.CkTilde, attrs, r)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return &credential.Credential{Attrs: attrs, R: r, Cm: cm, Sig: iss.sk.Sign(pp, cm, rng)}
}

func pksOf(issuers []*testIssuer) []*signature.PublicKey {
	pks := make([]*signature.PublicKey, len(issuers))
	for i, iss := range issuers {
		pks[i] = iss.pk
	}
	return pks
}

func TestBindingCompleteness(t *testing.T) {
	for k := 1; k <= 8; k++ {
		pp, issuers, rng := testSetup(t, k, 3)
		id := pp.Curve.NewRandomZr(rng)
		creds := make([]*credential.Credential, k)
		for i := range creds {
			creds[i] = issueWithIdentifier(t, pp, issuers[i], id, rng)
		}

		proof, err := Prove(pp, pksOf(issuers), creds, rng)
		if err != nil {
			t.Fatalf("k=%d prove: %v", k, err)
		}
		if err := Verify(pp, pksOf(issuers), proof); err != nil {
			t.Fatalf("k=%d verify: %v", k, err)
		}
	}
}

func TestBindingRejectsMismatchedIdentifiers(t *testing.T) {
	for k := 2; k <= 5; k++ {
		pp, issuers, rng := testSetup(t, k, 3)
		id := pp.Curve.NewRandomZr(rng)
		creds := make([]*credential.Credential, k)
		for i := range creds {
			creds[i] = issueWithIdentifier(t, pp, issuers[i], id, rng)
		}
		// Replace the last credential with one bound to another holder.
		creds[k-1] = issueWithIdentifier(t, pp, issuers[k-1], pp.Curve.NewRandomZr(rng), rng)

		proof, err := Prove(pp, pksOf(issuers), creds, rng)
		if err != nil {
			t.Fatalf("k=%d prove: %v", k, err)
		}
		if err := Verify(pp, pksOf(issuers), proof); !errors.Is(err, ErrBindingFailed) {
			t.Fatalf("k=%d want ErrBindingFailed, got %v", k, err)
		}
	}
}

func TestBindingRejectsTamperedResponse(t *testing.T) {
	pp, issuers, rng := testSetup(t, 3, 4)
	id := pp.Curve.NewRandomZr(rng)
	creds := make([]*credential.Credential, 3)
	for i := range creds {
		creds[i] = issueWithIdentifier(t, pp, issuers[i], id, rng)
	}

	proof, err := Prove(pp, pksOf(issuers), creds, rng)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	proof.Legs[1].Responses[2] = pp.Curve.ModAdd(proof.Legs[1].Responses[2], pp.Curve.NewZrFromInt(1), pp.Curve.GroupOrder)
	if err := Verify(pp, pksOf(issuers), proof); !errors.Is(err, ErrBindingFailed) {
		t.Fatalf("want ErrBindingFailed, got %v", err)
	}
}

func TestBindingRejectsTamperedChallenge(t *testing.T) {
	pp, issuers, rng := testSetup(t, 2, 3)
	id := pp.Curve.NewRandomZr(rng)
	creds := []*credential.Credential{
		issueWithIdentifier(t, pp, issuers[0], id, rng),
		issueWithIdentifier(t, pp, issuers[1], id, rng),
	}

	proof, err := Prove(pp, pksOf(issuers), creds, rng)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	proof.Challenge = pp.Curve.ModAdd(proof.Challenge, pp.Curve.NewZrFromInt(1), pp.Curve.GroupOrder)
	if err := Verify(pp, pksOf(issuers), proof); !errors.Is(err, ErrBindingFailed) {
		t.Fatalf("want ErrBindingFailed, got %v", err)
	}
}

func TestBindingRejectsMissingComponents(t *testing.T) {
	pp, issuers, rng := testSetup(t, 2, 3)
	id := pp.Curve.NewRandomZr(rng)
	creds := []*credential.Credential{
		issueWithIdentifier(t, pp, issuers[0], id, rng),
		issueWithIdentifier(t, pp, issuers[1], id, rng),
	}

	fresh := func() *Proof {
		proof, err := Prove(pp, pksOf(issuers), creds, rng)
		if err != nil {
			t.Fatalf("prove: %v", err)
		}
		return proof
	}

	for name, mutate := range map[string]func(*Proof){
		"nil challenge":  func(p *Proof) { p.Challenge = nil },
		"nil signature":  func(p *Proof) { p.Legs[0].Sig = nil },
		"nil commitment": func(p *Proof) { p.Legs[1].Cm = nil },
		"nil sigma com":  func(p *Proof) { p.Legs[0].SigmaCom = nil },
		"nil response":   func(p *Proof) { p.Legs[1].Responses[0] = nil },
	} {
		proof := fresh()
		mutate(proof)
		if err := Verify(pp, pksOf(issuers), proof); !errors.Is(err, ErrBindingFailed) {
			t.Fatalf("%s: want ErrBindingFailed, got %v", name, err)
		}
	}
}

func TestBindingRejectsEmptyBundle(t *testing.T) {
	pp, issuers, rng := testSetup(t, 1, 2)
	if _, err := Prove(pp, nil, nil, rng); !errors.Is(err, ErrBindingFailed) {
		t.Fatalf("want ErrBindingFailed, got %v", err)
	}
	if err := Verify(pp, pksOf(issuers), &Proof{}); !errors.Is(err, ErrBindingFailed) {
		t.Fatalf("want ErrBindingFailed, got %v", err)
	}
}

func TestBindingMixedSlotCounts(t *testing.T) {
	pp, err := params.Default()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	rng, err := pp.Curve.Rand()
	if err != nil {
		t.Fatalf("rng: %v", err)
	}
	id := pp.Curve.NewRandomZr(rng)

	var issuers []*testIssuer
	var creds []*credential.Credential
	for _, slots := range []int{2, 5, 3} {
		sk, pk, err := signature.KeyGen(pp, slots, rng)
		if err != nil {
			t.Fatalf("keygen: %v", err)
		}
		iss := &testIssuer{sk: sk, pk: pk}
		issuers = append(issuers, iss)
		creds = append(creds, issueWithIdentifier(t, pp, iss, id, rng))
	}

	proof, err := Prove(pp, pksOf(issuers), creds, rng)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if err := Verify(pp, pksOf(issuers), proof); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
