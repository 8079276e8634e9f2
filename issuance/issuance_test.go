package issuance

import (
	"errors"
	"io"
	"testing"

	math "github.com/IBM/mathlib"

	"mimc-abc/params"
	"mimc-abc/signature"
)

func testSetup(t *testing.T, slots int) (*params.Params, *signature.SecretKey, *signature.PublicKey, io.Reader) {
	t.Helper()
	pp, err := params.Default()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	rng, err := pp.Curve.Rand()
	if err != nil {
		t.Fatalf("rng: %v", err)
	}
	sk, pk, err := signature.KeyGen(pp, slots, rng)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return pp, sk, pk, rng
}

func randomVector(pp *params.Params, rng io.Reader, n int) []*math.Zr {
	out := make([]*math.Zr, n)
	for i := range out {
		out[i] = pp.Curve.NewRandomZr(rng)
	}
	return out
}

func TestHandshakeRoundTrip(t *testing.T) {
	pp, sk, pk, rng := testSetup(t, 4)
	attrs := randomVector(pp, rng, 4)

	req, pending, err := NewRequest(pp, pk, attrs, rng)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	sig, err := Issue(pp, pk, sk, req, rng)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	cred, err := pending.Complete(sig)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := cred.Verify(pp, pk); err != nil {
		t.Fatalf("credential verify: %v", err)
	}
	if !cred.Identifier().Equals(attrs[0]) {
		t.Fatalf("identifier slot not preserved")
	}
}

func TestIssueRejectsTamperedResponse(t *testing.T) {
	pp, sk, pk, rng := testSetup(t, 3)
	req, _, err := NewRequest(pp, pk, randomVector(pp, rng, 3), rng)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Responses[0] = pp.Curve.ModAdd(req.Responses[0], pp.Curve.NewZrFromInt(1), pp.Curve.GroupOrder)
	if _, err := Issue(pp, pk, sk, req, rng); !errors.Is(err, ErrInvalidCommitment) {
		t.Fatalf("want ErrInvalidCommitment, got %v", err)
	}
}

func TestIssueRejectsTamperedCommitment(t *testing.T) {
	pp, sk, pk, rng := testSetup(t, 3)
	req, _, err := NewRequest(pp, pk, randomVector(pp, rng, 3), rng)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Cm.Cm.Add(pp.G)
	if _, err := Issue(pp, pk, sk, req, rng); !errors.Is(err, ErrInvalidCommitment) {
		t.Fatalf("want ErrInvalidCommitment, got %v", err)
	}
}

func TestIssueRejectsForeignKeyRequest(t *testing.T) {
	pp, sk, pk, rng := testSetup(t, 3)
	_, pkOther, err := signature.KeyGen(pp, 3, rng)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	req, _, err := NewRequest(pp, pkOther, randomVector(pp, rng, 3), rng)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	if _, err := Issue(pp, pk, sk, req, rng); !errors.Is(err, ErrInvalidCommitment) {
		t.Fatalf("want ErrInvalidCommitment, got %v", err)
	}
}

func TestCompleteRejectsForeignSignature(t *testing.T) {
	pp, _, pk, rng := testSetup(t, 2)
	skOther, _, err := signature.KeyGen(pp, 2, rng)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	req, pending, err := NewRequest(pp, pk, randomVector(pp, rng, 2), rng)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	sig := skOther.Sign(pp, req.Cm, rng)
	if _, err := pending.Complete(sig); !errors.Is(err, signature.ErrSignatureInvalid) {
		t.Fatalf("want ErrSignatureInvalid, got %v", err)
	}
}
