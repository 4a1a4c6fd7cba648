package bt

import (
	"fmt"
	"strings"
)

// ParallelPolicy decides when a Parallel resolves to one outcome.
type ParallelPolicy uint8

const (
	// PolicyOne resolves as soon as one child matches.
	PolicyOne ParallelPolicy = iota
	// PolicyOneDelayed waits for every child, then resolves if at least one matched.
	PolicyOneDelayed
	// PolicyAll requires every child to match.
	PolicyAll
)

func (p ParallelPolicy) String() string {
	switch p {
	case PolicyOne:
		return "one"
	case PolicyOneDelayed:
		return "one_delayed"
	case PolicyAll:
		return "all"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

func (p ParallelPolicy) Valid() bool { return p <= PolicyAll }

func ParsePolicy(name string) (ParallelPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "one":
		return PolicyOne, nil
	case "one_delayed", "onedelayed", "one-delayed":
		return PolicyOneDelayed, nil
	case "all":
		return PolicyAll, nil
	default:
		return PolicyOne, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}

// policyState aggregates child results for one activation.
type policyState struct {
	success      ParallelPolicy
	failure      ParallelPolicy
	successCount int
	failureCount int
	total        int
}

func (p *policyState) reset(total int) {
	p.successCount = 0
	p.failureCount = 0
	p.total = total
}

// record counts one terminal child result and returns the aggregate status.
func (p *policyState) record(result Status) Status {
	if result == StatusSuccess {
		p.successCount++
	} else {
		p.failureCount++
	}
	if p.successCount+p.failureCount > p.total {
		violation("parallel received %d results for %d children", p.successCount+p.failureCount, p.total)
	}

	if p.failure == PolicyOne && p.failureCount >= 1 {
		return StatusFailure
	}
	if p.success == PolicyOne && p.successCount >= 1 {
		return StatusSuccess
	}
	if p.successCount+p.failureCount < p.total {
		return StatusRunning
	}
	if (p.failure == PolicyOneDelayed && p.failureCount >= 1) ||
		(p.failure == PolicyAll && p.failureCount == p.total) {
		return StatusFailure
	}
	if (p.success == PolicyOneDelayed && p.successCount >= 1) ||
		(p.success == PolicyAll && p.successCount == p.total) {
		return StatusSuccess
	}
	// inconsistent policies still have to terminate
	return StatusFailure
}

// Counts returns the success and failure counters of the current activation.
func (p *policyState) Counts() (success, failure int) {
	return p.successCount, p.failureCount
}

// Parallel activates every child at once and aggregates their results with
// independent success and failure policies. Children still running when the
// node resolves are aborted.
type Parallel struct {
	composite
	children ChildrenNodes
	policy   policyState
}

func (n *Parallel) Kind() Kind { return KindParallel }

func (n *Parallel) Initialize(s Scope) Status {
	n.children.Reset()
	n.policy.reset(n.children.Len())
	if n.children.Len() == 0 {
		return StatusFailure
	}
	for {
		child, ok := n.children.Next()
		if !ok {
			break
		}
		s.Activate(child)
	}
	return StatusRunning
}

func (n *Parallel) OnChildComplete(s Scope, child NodeID, result Status) Status {
	if !n.children.Contains(child) {
		violation("parallel %d got completion from foreign node %d", s.self, child)
	}
	return n.policy.record(result)
}

func (n *Parallel) Terminate(s Scope) { s.AbortRunning(n.children.All()) }

func (n *Parallel) Abort(s Scope) { s.AbortRunning(n.children.All()) }

func (n *Parallel) Children() []NodeID { return n.children.All() }

// Counts returns the success and failure counters of the current activation.
func (n *Parallel) Counts() (success, failure int) { return n.policy.Counts() }

func (n *Parallel) Policies() (success, failure ParallelPolicy) {
	return n.policy.success, n.policy.failure
}
