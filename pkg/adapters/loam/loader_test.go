package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/arbor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signupDoc = `---
id: signup
vars:
  - name: account
states:
  - id: form
    type: view
    transitions:
      - on: submit
        to: done
        bind:
          - name: email
            value: account.email
  - id: done
    type: end
---
Collects an email address.`

func TestLoader_Contract(t *testing.T) {
	_, repo := testutils.FlowRepo(t, map[string]string{
		"signup.md": signupDoc,
		"ping.md": `---
states:
  - id: pong
    type: end
---`,
	})
	loader := New(repo)

	tests.ModelLoaderContractTest(t, loader, map[string][]string{
		"signup": {"form", "done"},
		"ping":   {"pong"},
	})
}

func TestLoader_BodyBecomesDescription(t *testing.T) {
	_, repo := testutils.FlowRepo(t, map[string]string{"signup.md": signupDoc})

	m, err := New(repo).Load(context.Background(), "signup")
	require.NoError(t, err)
	assert.Equal(t, "Collects an email address.", m.Attributes[DescriptionAttribute])

	form, ok := m.State("form")
	require.True(t, ok)
	require.Len(t, form.Transitions, 1)
	assert.Equal(t, "account.email", form.Transitions[0].Bind[0].Value)
}

func TestLoader_List_NormalizesIDs(t *testing.T) {
	files := map[string]string{
		"start.md": `---
id: start.md
states: [{id: s, type: end}]
---
Hello`,
		"choice.json": `{
  "id": "choice.json",
  "states": [{"id": "s", "type": "end"}]
}`,
		"implicit.md": `---
states: [{id: s, type: end}]
---
ID is implied from filename`,
	}
	_, repo := testutils.FlowRepo(t, files)

	ids, err := New(repo).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"choice", "implicit", "start"}, ids)
}

func TestLoader_List_DetectsCollisions(t *testing.T) {
	files := map[string]string{
		"foo.md": `---
id: foo
states: [{id: s, type: end}]
---
Explicit ID`,
		"foo.json": `{"id": "foo", "states": [{"id": "s", "type": "end"}]}`,
	}
	_, repo := testutils.FlowRepo(t, files)

	_, err := New(repo).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "foo")
}

func TestLoader_Load_InvalidModel(t *testing.T) {
	dir, repo := testutils.FlowRepo(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.md"), []byte("---\nid: empty\n---\nNo states"), 0644))

	_, err := New(repo).Load(context.Background(), "empty")
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestOpen(t *testing.T) {
	loader, err := Open(testutils.WriteFlows(t, map[string]string{"signup.md": signupDoc}))
	require.NoError(t, err)
	m, err := loader.Load(context.Background(), "signup")
	require.NoError(t, err)
	assert.Equal(t, []string{"form", "done"}, m.StateIDs())
}
