package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/model"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// OverlayFor builds the overlay of flowID from an execution: every state
// its history entered in that flow, and the state the active session is in
// when it belongs to flowID.
func OverlayFor(exec *domain.Execution, flowID string) *GraphOverlay {
	o := &GraphOverlay{}
	for _, h := range exec.History {
		if flow, state, ok := strings.Cut(h, ":"); ok && flow == flowID {
			o.VisitedStates = append(o.VisitedStates, state)
		}
	}
	if s := exec.ActiveSession(); s != nil && s.FlowID == flowID {
		o.CurrentState = s.StateID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of m.
// State shapes follow their type:
//   - view: [/Parallelogram/]
//   - action: {{Hexagon}}
//   - decision: {Rhombus}
//   - subflow: [[Subroutine]]
//   - end: ([Stadium])
//
// The start state is linked from a circle. Exception transitions are drawn
// dotted, and global transitions hang off a shared "any state" node.
func GenerateMermaid(m *model.FlowModel, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	if ids := m.StateIDs(); len(ids) > 0 {
		start := m.StartState
		if start == "" {
			start = ids[0]
		}
		fmt.Fprintf(&sb, "    __start((\"%s\")) --> %s\n", escape(m.ID), sanitizeMermaidID(start))
	}

	for _, st := range m.States {
		id := sanitizeMermaidID(st.ID)
		opener, closer := shape(st.Type)
		label := st.ID
		switch st.Type {
		case model.TypeSubflow:
			label += " <br/> ↳ " + st.Subflow
		case model.TypeView, model.TypeEnd:
			if st.View != "" && st.View != st.ID {
				label += " <br/> 🖵 " + st.View
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)

		if st.Type == model.TypeDecision {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, escape(st.Test), sanitizeMermaidID(st.Then))
			if st.Else != "" {
				fmt.Fprintf(&sb, "    %s -- \"else\" --> %s\n", id, sanitizeMermaidID(st.Else))
			}
		}
		writeTransitions(&sb, id, st.Transitions)
	}

	if len(m.GlobalTransitions) > 0 {
		sb.WriteString("    __global{{\"any state\"}}\n")
		writeTransitions(&sb, "__global", m.GlobalTransitions)
	}

	if overlay != nil {
		writeOverlay(&sb, overlay)
	}
	return sb.String()
}

func shape(typ string) (string, string) {
	switch typ {
	case model.TypeView:
		return "[/", "/]"
	case model.TypeAction:
		return "{{", "}}"
	case model.TypeDecision:
		return "{", "}"
	case model.TypeSubflow:
		return "[[", "]]"
	case model.TypeEnd:
		return "([", "])"
	}
	return "[", "]"
}

func writeTransitions(sb *strings.Builder, from string, transitions []model.TransitionModel) {
	for _, t := range transitions {
		// Expression targets and pure action transitions have no static edge.
		if t.To == "" || strings.HasPrefix(t.To, "${") || strings.HasPrefix(t.To, "#{") {
			continue
		}
		to := sanitizeMermaidID(t.To)
		if t.OnException != "" {
			fmt.Fprintf(sb, "    %s -. \"⚡ %s\" .-> %s\n", from, escape(t.OnException), to)
			continue
		}
		fmt.Fprintf(sb, "    %s -- \"%s\" --> %s\n", from, escape(t.On), to)
	}
}

func writeOverlay(sb *strings.Builder, overlay *GraphOverlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps the highlight readable on light and dark themes.
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	seen := make(map[string]bool)
	for _, id := range overlay.VisitedStates {
		safeID := sanitizeMermaidID(id)
		if safeID != "" && !seen[safeID] {
			seen[safeID] = true
			fmt.Fprintf(sb, "    class %s visited;\n", safeID)
		}
	}
	if overlay.CurrentState != "" {
		fmt.Fprintf(sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
	}
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

var idReplacer = strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")

func sanitizeMermaidID(id string) string {
	return idReplacer.Replace(id)
}
