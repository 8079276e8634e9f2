package signature

import (
	"errors"
	"testing"
)

func TestKeyProofRoundTrip(t *testing.T) {
	pp, rng := testSetup(t)
	sk, pk, err := KeyGen(pp, 4, rng)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	proof := ProveKey(pp, sk, pk, rng)
	if err := proof.Verify(pp, pk); err != nil {
		t.Fatalf("verify key proof: %v", err)
	}
}

func TestKeyProofRejectsForeignKey(t *testing.T) {
	pp, rng := testSetup(t)
	sk, pk, err := KeyGen(pp, 3, rng)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	_, pkOther, err := KeyGen(pp, 3, rng)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	proof := ProveKey(pp, sk, pk, rng)
	if err := proof.Verify(pp, pkOther); !errors.Is(err, ErrKeyProofInvalid) {
		t.Fatalf("want ErrKeyProofInvalid, got %v", err)
	}
}

func TestKeyProofRejectsTamperedChallenge(t *testing.T) {
	pp, rng := testSetup(t)
	sk, pk, err := KeyGen(pp, 2, rng)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	proof := ProveKey(pp, sk, pk, rng)
	proof.Challenge = pp.Curve.ModAdd(proof.Challenge, pp.Curve.NewZrFromInt(1), pp.Curve.GroupOrder)
	if err := proof.Verify(pp, pk); !errors.Is(err, ErrKeyProofInvalid) {
		t.Fatalf("want ErrKeyProofInvalid, got %v", err)
	}
}
