package params

import (
	"bytes"
	"testing"
)

func TestDefaultDeterministic(t *testing.T) {
	a, err := Default()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	b, err := Default()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !bytes.Equal(a.G.Bytes(), b.G.Bytes()) {
		t.Fatalf("G differs between derivations")
	}
	if !bytes.Equal(a.GTilde.Bytes(), b.GTilde.Bytes()) {
		t.Fatalf("GTilde differs between derivations")
	}
}

func TestGeneratorsNotIdentity(t *testing.T) {
	pp, err := Default()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if pp.G.IsInfinity() {
		t.Fatalf("G is the identity")
	}
	one := pp.Curve.Pairing(pp.GTilde, pp.G)
	if pp.Curve.FExp(one).IsUnity() {
		t.Fatalf("e(G, GTilde) is the identity")
	}
}
