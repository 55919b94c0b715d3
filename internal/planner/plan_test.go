package planner

import (
	"bytes"
	"testing"
)

func TestPlanAppendAndFinalize(t *testing.T) {
	p := NewPlan()
	if err := p.Add(ActionSettle, []byte{0x01}); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := p.Add(ActionMintPosition, []byte{0x02}); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	actions, err := p.Actions()
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if !bytes.Equal(actions, []byte{ActionSettle, ActionMintPosition}) {
		t.Fatalf("actions = %x", actions)
	}
	params, err := p.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if len(params) != 2 || !bytes.Equal(params[0], []byte{0x01}) || !bytes.Equal(params[1], []byte{0x02}) {
		t.Fatalf("params = %v", params)
	}

	if err := p.Finalize(); err != ErrPlanFinalized {
		t.Fatalf("second finalize: got %v, want ErrPlanFinalized", err)
	}
	if p.Len() != 2 {
		t.Fatalf("length corrupted: %d", p.Len())
	}
	if err := p.Add(ActionSettle, nil); err != ErrPlanFinalized {
		t.Fatalf("append after finalize: got %v, want ErrPlanFinalized", err)
	}
}

func TestPlanCapacity(t *testing.T) {
	p := NewPlan()
	for i := 0; i < MaxPlanOps; i++ {
		if err := p.Add(ActionSettle, nil); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := p.Add(ActionSettle, nil); err != ErrPlanOverflow {
		t.Fatalf("overflow append: got %v, want ErrPlanOverflow", err)
	}
	if p.Len() != MaxPlanOps {
		t.Fatalf("length corrupted after overflow: %d", p.Len())
	}
}

func TestPlanAccessorsBeforeFinalize(t *testing.T) {
	p := NewPlan()
	if _, err := p.Actions(); err != ErrPlanOpen {
		t.Fatalf("open actions: got %v, want ErrPlanOpen", err)
	}
	if _, err := p.Params(); err != ErrPlanOpen {
		t.Fatalf("open params: got %v, want ErrPlanOpen", err)
	}
}
