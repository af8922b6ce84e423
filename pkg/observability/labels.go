package observability

import "github.com/aretw0/arbor/pkg/domain"

// flowID returns the id of the active flow, or of the root flow when no
// session is active.
func flowID(rc domain.RequestContext) string {
	if f := rc.ActiveFlow(); f != nil {
		return f.ID
	}
	if exec := rc.Execution(); exec != nil {
		return exec.FlowID
	}
	return ""
}

func executionKey(rc domain.RequestContext) string {
	if exec := rc.Execution(); exec != nil {
		return exec.Key
	}
	return ""
}

func stateID(rc domain.RequestContext) string {
	if st := rc.CurrentState(); st != nil {
		return st.ID
	}
	return ""
}
