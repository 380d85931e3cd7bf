package driver

import (
	"fmt"

	"github.com/bladeshare/bladeshare/pkg/types"
)

// ReconcilePlan is the minimal set of mutations that transforms a live
// rule set into the declared one. Removals are applied before additions so
// a rule whose level changes is never widened transiently: the old tuple
// disappears before the new one lands.
type ReconcilePlan struct {
	ToAdd     []types.AccessRule
	ToRemove  []types.AccessRule
	Unchanged []types.AccessRule

	// Unsupported holds per-rule outcomes for declared rules the share's
	// protocol cannot express. They are excluded from ToAdd and do not
	// fail the batch.
	Unsupported []types.RuleOutcome
}

// Reconcile computes the diff between the array's current rules and the
// orchestrator's declared set for a share protocol. Equality is full-tuple:
// a level change on the same access_to is a removal of the old tuple plus
// an addition of the new one.
func Reconcile(protocol types.Protocol, current, declared []types.AccessRule) ReconcilePlan {
	var plan ReconcilePlan

	supported := make([]types.AccessRule, 0, len(declared))
	for _, rule := range declared {
		if reason, ok := ruleSupported(protocol, rule); !ok {
			plan.Unsupported = append(plan.Unsupported, types.RuleOutcome{
				Rule:    rule,
				Status:  types.RuleUnsupported,
				Message: reason,
			})
			continue
		}
		supported = append(supported, rule)
	}

	currentSet := make(map[types.AccessRule]struct{}, len(current))
	for _, rule := range current {
		currentSet[rule] = struct{}{}
	}
	declaredSet := make(map[types.AccessRule]struct{}, len(supported))
	for _, rule := range supported {
		declaredSet[rule] = struct{}{}
	}

	for _, rule := range supported {
		if _, ok := currentSet[rule]; ok {
			plan.Unchanged = append(plan.Unchanged, rule)
		} else {
			plan.ToAdd = append(plan.ToAdd, rule)
		}
	}
	for _, rule := range current {
		if _, ok := declaredSet[rule]; !ok {
			plan.ToRemove = append(plan.ToRemove, rule)
		}
	}

	return plan
}

// ruleSupported reports whether the array can express a rule for the
// given protocol: NFS exports match client addresses, SMB permissions
// match user principals.
func ruleSupported(protocol types.Protocol, rule types.AccessRule) (string, bool) {
	switch protocol {
	case types.ProtocolNFS:
		if rule.Type != types.AccessTypeIP {
			return fmt.Sprintf("NFS exports only support ip rules, got %s", rule.Type), false
		}
	case types.ProtocolCIFS:
		if rule.Type != types.AccessTypeUser {
			return fmt.Sprintf("SMB permissions only support user rules, got %s", rule.Type), false
		}
	default:
		return fmt.Sprintf("unknown protocol %s", protocol), false
	}
	if rule.Level != types.AccessLevelRW && rule.Level != types.AccessLevelRO {
		return fmt.Sprintf("unknown access level %s", rule.Level), false
	}
	return "", true
}
