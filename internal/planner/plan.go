// Package planner assembles the bounded, ordered operation batch that seeds
// a freshly initialized pool with a full-range position, an optional
// one-sided leftover position, and a terminal residual sweep.
package planner

import "errors"

// Action opcodes understood by the position executor.
const (
	ActionMintPosition byte = 0x02
	ActionSettle       byte = 0x0b
	ActionTakePair     byte = 0x11
	ActionClearOrTake  byte = 0x13
)

// MaxPlanOps is the worst case batch size: a full-range position (settle x2,
// mint, clear-or-take), a one-sided position (settle, mint, clear-or-take),
// and the final take-pair.
const MaxPlanOps = 8

var (
	ErrPlanOverflow  = errors.New("planner: plan capacity exceeded")
	ErrPlanFinalized = errors.New("planner: plan already finalized")
	ErrPlanOpen      = errors.New("planner: plan not finalized")
)

// Plan is an append-only operation batch with fixed backing storage. It is a
// single-owner value: each planning call builds its own and hands it off
// after Finalize, never sharing it across calls.
type Plan struct {
	actions   [MaxPlanOps]byte
	params    [MaxPlanOps][]byte
	length    int
	finalized bool
}

func NewPlan() *Plan {
	return &Plan{}
}

// Add appends one (action, params) pair.
func (p *Plan) Add(action byte, params []byte) error {
	if p.finalized {
		return ErrPlanFinalized
	}
	if p.length == MaxPlanOps {
		return ErrPlanOverflow
	}
	p.actions[p.length] = action
	p.params[p.length] = params
	p.length++
	return nil
}

// Finalize truncates the plan to the appended count. It is one-way: further
// appends and repeat finalizations are rejected.
func (p *Plan) Finalize() error {
	if p.finalized {
		return ErrPlanFinalized
	}
	p.finalized = true
	return nil
}

func (p *Plan) Len() int {
	return p.length
}

func (p *Plan) Finalized() bool {
	return p.finalized
}

// Actions returns the finalized opcode sequence, or an error while the plan
// is still open.
func (p *Plan) Actions() ([]byte, error) {
	if !p.finalized {
		return nil, ErrPlanOpen
	}
	out := make([]byte, p.length)
	copy(out, p.actions[:p.length])
	return out, nil
}

// Params returns the finalized parameter payloads, index-aligned with
// Actions.
func (p *Plan) Params() ([][]byte, error) {
	if !p.finalized {
		return nil, ErrPlanOpen
	}
	out := make([][]byte, p.length)
	copy(out, p.params[:p.length])
	return out, nil
}
