package driver

import (
	"testing"

	"github.com/bladeshare/bladeshare/pkg/types"
)

func rule(t types.AccessType, to string, level types.AccessLevel) types.AccessRule {
	return types.AccessRule{Type: t, AccessTo: to, Level: level}
}

func TestReconcile_LevelChange(t *testing.T) {
	t.Parallel()

	// Declared [{IP,10.0.0.5,RW}] against current
	// [{IP,10.0.0.5,RO},{IP,10.0.0.9,RW}]: the level change forces a
	// remove+add of the 10.0.0.5 entry and the stale 10.0.0.9 entry goes.
	declared := []types.AccessRule{rule(types.AccessTypeIP, "10.0.0.5", types.AccessLevelRW)}
	current := []types.AccessRule{
		rule(types.AccessTypeIP, "10.0.0.5", types.AccessLevelRO),
		rule(types.AccessTypeIP, "10.0.0.9", types.AccessLevelRW),
	}

	plan := Reconcile(types.ProtocolNFS, current, declared)

	wantRemove := []types.AccessRule{
		rule(types.AccessTypeIP, "10.0.0.5", types.AccessLevelRO),
		rule(types.AccessTypeIP, "10.0.0.9", types.AccessLevelRW),
	}
	if len(plan.ToRemove) != len(wantRemove) {
		t.Fatalf("ToRemove = %v, want %v", plan.ToRemove, wantRemove)
	}
	for i, r := range wantRemove {
		if plan.ToRemove[i] != r {
			t.Errorf("ToRemove[%d] = %v, want %v", i, plan.ToRemove[i], r)
		}
	}
	if len(plan.ToAdd) != 1 || plan.ToAdd[0] != declared[0] {
		t.Errorf("ToAdd = %v, want %v", plan.ToAdd, declared)
	}
	if len(plan.Unchanged) != 0 {
		t.Errorf("Unchanged = %v, want empty", plan.Unchanged)
	}
}

func TestReconcile_ConvergesToDeclared(t *testing.T) {
	t.Parallel()

	current := []types.AccessRule{
		rule(types.AccessTypeIP, "10.0.0.1", types.AccessLevelRW),
		rule(types.AccessTypeIP, "10.0.0.2", types.AccessLevelRO),
		rule(types.AccessTypeIP, "10.0.0.3", types.AccessLevelRW),
	}
	declared := []types.AccessRule{
		rule(types.AccessTypeIP, "10.0.0.2", types.AccessLevelRO), // unchanged
		rule(types.AccessTypeIP, "10.0.0.3", types.AccessLevelRO), // level change
		rule(types.AccessTypeIP, "10.0.0.4", types.AccessLevelRW), // new
	}

	plan := Reconcile(types.ProtocolNFS, current, declared)

	// Simulate application: live = current - ToRemove + ToAdd.
	live := make(map[types.AccessRule]struct{})
	for _, r := range current {
		live[r] = struct{}{}
	}
	for _, r := range plan.ToRemove {
		delete(live, r)
	}
	for _, r := range plan.ToAdd {
		live[r] = struct{}{}
	}

	if len(live) != len(declared) {
		t.Fatalf("live set has %d rules, want %d", len(live), len(declared))
	}
	for _, r := range declared {
		if _, ok := live[r]; !ok {
			t.Errorf("declared rule %v missing from live set", r)
		}
	}
}

func TestReconcile_NoChanges(t *testing.T) {
	t.Parallel()

	rules := []types.AccessRule{
		rule(types.AccessTypeIP, "10.0.0.1", types.AccessLevelRW),
		rule(types.AccessTypeIP, "10.0.0.2", types.AccessLevelRO),
	}

	plan := Reconcile(types.ProtocolNFS, rules, rules)

	if len(plan.ToAdd) != 0 || len(plan.ToRemove) != 0 {
		t.Errorf("identical sets produced mutations: add=%v remove=%v", plan.ToAdd, plan.ToRemove)
	}
	if len(plan.Unchanged) != 2 {
		t.Errorf("Unchanged = %v, want both rules", plan.Unchanged)
	}
}

func TestReconcile_Unsupported(t *testing.T) {
	t.Parallel()

	t.Run("user rule on NFS", func(t *testing.T) {
		declared := []types.AccessRule{
			rule(types.AccessTypeUser, "alice", types.AccessLevelRW),
			rule(types.AccessTypeIP, "10.0.0.5", types.AccessLevelRW),
		}

		plan := Reconcile(types.ProtocolNFS, nil, declared)

		if len(plan.Unsupported) != 1 {
			t.Fatalf("Unsupported = %v, want one entry", plan.Unsupported)
		}
		if plan.Unsupported[0].Rule.AccessTo != "alice" {
			t.Errorf("wrong rule marked unsupported: %v", plan.Unsupported[0])
		}
		if plan.Unsupported[0].Status != types.RuleUnsupported {
			t.Errorf("Status = %v", plan.Unsupported[0].Status)
		}
		// The supported rule still applies.
		if len(plan.ToAdd) != 1 || plan.ToAdd[0].AccessTo != "10.0.0.5" {
			t.Errorf("ToAdd = %v, want the ip rule", plan.ToAdd)
		}
	})

	t.Run("ip rule on CIFS", func(t *testing.T) {
		declared := []types.AccessRule{rule(types.AccessTypeIP, "10.0.0.5", types.AccessLevelRW)}

		plan := Reconcile(types.ProtocolCIFS, nil, declared)

		if len(plan.Unsupported) != 1 || len(plan.ToAdd) != 0 {
			t.Errorf("plan = %+v, want only unsupported", plan)
		}
	})

	t.Run("unknown level", func(t *testing.T) {
		declared := []types.AccessRule{{Type: types.AccessTypeIP, AccessTo: "10.0.0.5", Level: "admin"}}

		plan := Reconcile(types.ProtocolNFS, nil, declared)

		if len(plan.Unsupported) != 1 || len(plan.ToAdd) != 0 {
			t.Errorf("plan = %+v, want only unsupported", plan)
		}
	})
}

func TestReconcile_EmptyDeclared(t *testing.T) {
	t.Parallel()

	current := []types.AccessRule{
		rule(types.AccessTypeIP, "10.0.0.1", types.AccessLevelRW),
	}

	plan := Reconcile(types.ProtocolNFS, current, nil)

	if len(plan.ToRemove) != 1 {
		t.Errorf("ToRemove = %v, want the single current rule", plan.ToRemove)
	}
	if len(plan.ToAdd) != 0 || len(plan.Unchanged) != 0 {
		t.Errorf("unexpected plan: %+v", plan)
	}
}
