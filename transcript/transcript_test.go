package transcript

import (
	"testing"

	math "github.com/IBM/mathlib"
)

func TestChallengeDeterministic(t *testing.T) {
	curve := math.Curves[math.BN254]

	build := func() *Transcript {
		tr := New("test")
		tr.AppendInt("n", 3)
		tr.AppendBytes("payload", []byte("abc"))
		tr.AppendZr("z", curve.NewZrFromInt(42))
		return tr
	}
	c1 := build().ChallengeZr(curve)
	c2 := build().ChallengeZr(curve)
	if !c1.Equals(c2) {
		t.Fatalf("identical transcripts yielded different challenges")
	}
}

func TestChallengeBindsPersonalization(t *testing.T) {
	curve := math.Curves[math.BN254]
	c1 := New("show").ChallengeZr(curve)
	c2 := New("issuance-request").ChallengeZr(curve)
	if c1.Equals(c2) {
		t.Fatalf("personalization not bound into challenge")
	}
}

func TestChallengeBindsValues(t *testing.T) {
	curve := math.Curves[math.BN254]

	tr1 := New("test")
	tr1.AppendInt("n", 1)
	tr2 := New("test")
	tr2.AppendInt("n", 2)
	if tr1.ChallengeZr(curve).Equals(tr2.ChallengeZr(curve)) {
		t.Fatalf("value not bound into challenge")
	}
}

func TestChallengeBindsLabels(t *testing.T) {
	curve := math.Curves[math.BN254]

	tr1 := New("test")
	tr1.AppendBytes("a", []byte("x"))
	tr2 := New("test")
	tr2.AppendBytes("b", []byte("x"))
	if tr1.ChallengeZr(curve).Equals(tr2.ChallengeZr(curve)) {
		t.Fatalf("label not bound into challenge")
	}
}

func TestLengthPrefixingPreventsSplicing(t *testing.T) {
	curve := math.Curves[math.BN254]

	tr1 := New("test")
	tr1.AppendBytes("a", []byte("bc"))
	tr2 := New("test")
	tr2.AppendBytes("ab", []byte("c"))
	if tr1.ChallengeZr(curve).Equals(tr2.ChallengeZr(curve)) {
		t.Fatalf("boundary shift produced the same challenge")
	}
}

func TestFollowUpChallengeIndependent(t *testing.T) {
	curve := math.Curves[math.BN254]

	tr := New("test")
	tr.AppendInt("n", 1)
	c1 := tr.ChallengeZr(curve)
	tr.AppendZr("c1", c1)
	c2 := tr.ChallengeZr(curve)
	if c1.Equals(c2) {
		t.Fatalf("follow-up challenge equals the first")
	}
}
