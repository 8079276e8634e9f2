// Package transcript provides the Fiat-Shamir accumulator shared by every
// proof in the scheme. A Transcript is an explicit value threaded through
// construction and verification; both sides must append the same labeled
// elements in the same order to derive the same challenge.
package transcript

import (
	"bytes"
	"encoding/binary"

	math "github.com/IBM/mathlib"
	"golang.org/x/crypto/sha3"
)

const challengeLen = 64

// Transcript accumulates labeled public values and squeezes challenges from
// a SHAKE-256 sponge over the accumulated bytes.
type Transcript struct {
	buf bytes.Buffer
}

// New starts a transcript personalized by the proof kind, e.g. "show" or
// "identity-binding".
func New(personalization string) *Transcript {
	t := &Transcript{}
	t.appendRaw([]byte(personalization))
	return t
}

func (t *Transcript) appendRaw(b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	t.buf.Write(n[:])
	t.buf.Write(b)
}

// AppendBytes binds a labeled byte string into the transcript.
func (t *Transcript) AppendBytes(label string, b []byte) {
	t.appendRaw([]byte(label))
	t.appendRaw(b)
}

// AppendInt binds a labeled integer into the transcript.
func (t *Transcript) AppendInt(label string, v int) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(v))
	t.AppendBytes(label, n[:])
}

// AppendZr binds a labeled scalar into the transcript.
func (t *Transcript) AppendZr(label string, z *math.Zr) {
	t.AppendBytes(label, z.Bytes())
}

// AppendG1 binds a labeled G1 element into the transcript.
func (t *Transcript) AppendG1(label string, p *math.G1) {
	t.AppendBytes(label, p.Bytes())
}

// AppendG2 binds a labeled G2 element into the transcript.
func (t *Transcript) AppendG2(label string, p *math.G2) {
	t.AppendBytes(label, p.Bytes())
}

// ChallengeZr squeezes the current transcript into a scalar challenge.
// Appending more data afterwards yields an independent follow-up challenge.
func (t *Transcript) ChallengeZr(curve *math.Curve) *math.Zr {
	h := sha3.NewShake256()
	_, _ = h.Write(t.buf.Bytes())
	out := make([]byte, challengeLen)
	_, _ = h.Read(out)
	return curve.HashToZr(out)
}
