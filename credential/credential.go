// Package credential holds the holder-side credential value and the show
// protocol: a zero-knowledge proof of possession of a valid signature with
// selective disclosure of attributes.
package credential

import (
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/commitment"
	"mimc-abc/params"
	"mimc-abc/signature"
)

// IdentifierSlot is the attribute position reserved for the holder's
// private identifier in every credential, regardless of issuer.
const IdentifierSlot = 0

// Credential is an issuer's signature over an attribute vector together
// with the vector and the commitment opening. Held privately by the holder;
// only randomized derivations of it ever reach a verifier.
type Credential struct {
	Attrs []*math.Zr
	R     *math.Zr
	Cm    *commitment.Commitment
	Sig   *signature.Signature
}

// Identifier returns the holder identifier bound into the credential.
func (c *Credential) Identifier() *math.Zr {
	return c.Attrs[IdentifierSlot]
}

// Verify checks the credential's signature against its own attribute vector
// and opening under the issuing key.
func (c *Credential) Verify(pp *params.Params, pk *signature.PublicKey) error {
	return signature.Verify(pp, pk, c.Attrs, c.R, c.Sig)
}

// hiddenIndices lists the attribute slots a show proof keeps hidden, in
// ascending order.
func hiddenIndices(slots int, disclosed map[int]*math.Zr) []int {
	hidden := make([]int, 0, slots-len(disclosed))
	for i := 0; i < slots; i++ {
		if _, ok := disclosed[i]; !ok {
			hidden = append(hidden, i)
		}
	}
	return hidden
}

func validateDisclosure(slots int, disclose []int) error {
	seen := make(map[int]bool, len(disclose))
	for _, d := range disclose {
		if d == IdentifierSlot {
			return errors.New("identifier slot cannot be disclosed")
		}
		if d < 0 || d >= slots {
			return errors.Errorf("disclosure index %d out of range [0,%d)", d, slots)
		}
		if seen[d] {
			return errors.Errorf("duplicate disclosure index %d", d)
		}
		seen[d] = true
	}
	return nil
}
