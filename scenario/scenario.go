// Package scenario runs the comparison scenarios used for benchmarking the
// protocol suite: per-credential verification, batched verification,
// private showing, and cross-issuer linked showing. Setup and issuance are
// excluded from the timed sections.
package scenario

import (
	"fmt"
	"io"
	"time"

	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"

	"mimc-abc/batch"
	"mimc-abc/credential"
	"mimc-abc/params"
	"mimc-abc/protocol"
)

// Names lists the scenarios in the order RunAll executes them.
var Names = []string{"plain", "plain-batch", "private", "multi-issuer"}

// Config is one grid point. Attributes counts slots per credential
// including the identifier slot. Issuers is only used by the multi-issuer
// scenario, which issues one credential per issuer.
type Config struct {
	Credentials int
	Attributes  int
	Issuers     int
}

// Result is one timing record.
type Result struct {
	Scenario    string  `json:"scenario"`
	Credentials int     `json:"credentials"`
	Attributes  int     `json:"attributes"`
	Issuers     int     `json:"issuers"`
	ProveSec    float64 `json:"prove_sec"`
	VerifySec   float64 `json:"verify_sec"`
}

// Runner holds the fixed public parameters and randomness shared by all
// grid points.
type Runner struct {
	PP  *params.Params
	rng io.Reader
}

// NewRunner derives default public parameters and a randomness stream.
func NewRunner() (*Runner, error) {
	pp, err := params.Default()
	if err != nil {
		return nil, err
	}
	rng, err := pp.Curve.Rand()
	if err != nil {
		return nil, errors.Wrap(err, "obtain curve randomness")
	}
	return &Runner{PP: pp, rng: rng}, nil
}

// Run executes one named scenario at the given grid point.
func (r *Runner) Run(name string, cfg Config) (Result, error) {
	if cfg.Credentials < 1 || cfg.Attributes < 1 {
		return Result{}, errors.Errorf("bad grid point: %d credentials, %d attributes", cfg.Credentials, cfg.Attributes)
	}
	res := Result{
		Scenario:    name,
		Credentials: cfg.Credentials,
		Attributes:  cfg.Attributes,
		Issuers:     1,
	}
	switch name {
	case "plain":
		return r.runPlain(cfg, res, false)
	case "plain-batch":
		return r.runPlain(cfg, res, true)
	case "private":
		return r.runPrivate(cfg, res)
	case "multi-issuer":
		return r.runMultiIssuer(cfg, res)
	default:
		return Result{}, errors.Errorf("unknown scenario %q", name)
	}
}

// RunAll executes every scenario at the given grid point.
func (r *Runner) RunAll(cfg Config) ([]Result, error) {
	out := make([]Result, 0, len(Names))
	for _, name := range Names {
		res, err := r.Run(name, cfg)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *Runner) randomAttrs(n int) []*math.Zr {
	attrs := make([]*math.Zr, n)
	for i := range attrs {
		attrs[i] = r.PP.Curve.NewRandomZr(r.rng)
	}
	return attrs
}

// issueMany sets up one issuer and issues cfg.Credentials credentials to a
// fresh holder. Untimed.
func (r *Runner) issueMany(cfg Config) (*protocol.Issuer, []*credential.Credential, error) {
	sys := protocol.NewSystem(r.PP)
	iss, err := sys.AddIssuer("issuer-0", cfg.Attributes, r.rng)
	if err != nil {
		return nil, nil, err
	}
	holder := protocol.NewHolder(r.PP.Curve, r.rng)
	creds := make([]*credential.Credential, cfg.Credentials)
	for i := range creds {
		creds[i], err = holder.ObtainCredential(r.PP, iss, r.randomAttrs(cfg.Attributes-1), r.rng)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "credential %d", i)
		}
	}
	return iss, creds, nil
}

func (r *Runner) runPlain(cfg Config, res Result, batched bool) (Result, error) {
	iss, creds, err := r.issueMany(cfg)
	if err != nil {
		return res, err
	}

	start := time.Now()
	if batched {
		err = batch.Verify(r.PP, iss.PK, creds, r.rng)
	} else {
		for _, c := range creds {
			if err = c.Verify(r.PP, iss.PK); err != nil {
				break
			}
		}
	}
	res.VerifySec = time.Since(start).Seconds()
	return res, err
}

func (r *Runner) runPrivate(cfg Config, res Result) (Result, error) {
	iss, creds, err := r.issueMany(cfg)
	if err != nil {
		return res, err
	}

	start := time.Now()
	proofs := make([]*credential.ShowProof, len(creds))
	for i, c := range creds {
		proofs[i], err = c.Show(r.PP, iss.PK, nil, r.rng)
		if err != nil {
			return res, errors.Wrapf(err, "show %d", i)
		}
	}
	res.ProveSec = time.Since(start).Seconds()

	start = time.Now()
	for i, sp := range proofs {
		if err := credential.VerifyShow(r.PP, iss.PK, sp); err != nil {
			return res, errors.Wrapf(err, "verify show %d", i)
		}
	}
	res.VerifySec = time.Since(start).Seconds()
	return res, nil
}

func (r *Runner) runMultiIssuer(cfg Config, res Result) (Result, error) {
	k := cfg.Issuers
	if k < 1 {
		k = cfg.Credentials
	}
	res.Issuers = k
	res.Credentials = k

	sys := protocol.NewSystem(r.PP)
	holder := protocol.NewHolder(r.PP.Curve, r.rng)
	ids := make([]string, k)
	for i := 0; i < k; i++ {
		ids[i] = fmt.Sprintf("issuer-%d", i)
		iss, err := sys.AddIssuer(ids[i], cfg.Attributes, r.rng)
		if err != nil {
			return res, err
		}
		if _, err := holder.ObtainCredential(r.PP, iss, r.randomAttrs(cfg.Attributes-1), r.rng); err != nil {
			return res, errors.Wrapf(err, "issuer %q", ids[i])
		}
	}

	start := time.Now()
	proof, pks, err := holder.ShowLinked(sys, ids, r.rng)
	if err != nil {
		return res, err
	}
	res.ProveSec = time.Since(start).Seconds()

	start = time.Now()
	err = protocol.VerifyLinked(r.PP, pks, proof)
	res.VerifySec = time.Since(start).Seconds()
	return res, err
}
