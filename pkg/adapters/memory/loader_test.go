package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/model"
	contract "github.com/aretw0/arbor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	loader := memory.NewLoader(map[string]string{
		"greet": "id: greet\nstates:\n  - id: ask\n    type: view\n    transitions:\n      - on: next\n        to: bye\n  - id: bye\n    type: end\n",
		"noop":  `{"id": "noop", "states": [{"id": "done", "type": "end"}]}`,
	})

	contract.ModelLoaderContractTest(t, loader, map[string][]string{
		"greet": {"ask", "bye"},
		"noop":  {"done"},
	})
}

func TestNewFromModels(t *testing.T) {
	loader, err := memory.NewFromModels(&model.FlowModel{
		ID:     "noop",
		States: []model.StateModel{{ID: "done", Type: model.TypeEnd}},
	})
	require.NoError(t, err)

	contract.ModelLoaderContractTest(t, loader, map[string][]string{"noop": {"done"}})

	_, err = memory.NewFromModels(&model.FlowModel{})
	assert.Error(t, err)
}

func TestLoader_SetAndMismatchedID(t *testing.T) {
	loader := memory.NewLoader(nil)
	loader.Set("a", `{id: b, states: [{id: s, type: end}]}`)

	_, err := loader.Load(context.Background(), "a")
	assert.ErrorContains(t, err, `declares id "b"`)
}
