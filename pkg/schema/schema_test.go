package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	tests := []struct {
		typ   string
		ok    []any
		notOK []any
	}{
		{"string", []any{"", "x"}, []any{1, nil}},
		{"bool", []any{true}, []any{"true"}},
		{"int", []any{1, int64(2), 3.0, json.Number("4")}, []any{3.5, "4", json.Number("4.5")}},
		{"float", []any{1, 2.5, json.Number("1e3")}, []any{"2.5"}},
		{"any", []any{nil, "x", struct{}{}}, nil},
		{"[string]", []any{[]string{"a"}, []any{"a", "b"}, [1]string{"c"}}, []any{"a", []any{"a", 1}}},
		{"[[int]]", []any{[][]int{{1}}}, []any{[]int{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			typ, err := ParseType(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, typ.Name())
			for _, v := range tt.ok {
				assert.NoError(t, typ.Validate(v), "%#v", v)
			}
			for _, v := range tt.notOK {
				assert.Error(t, typ.Validate(v), "%#v", v)
			}
		})
	}
}

func TestParseType_Errors(t *testing.T) {
	for _, s := range []string{"complex", "[]", "[int", "[map]"} {
		_, err := ParseType(s)
		assert.Error(t, err, s)
	}
}

func TestValidate(t *testing.T) {
	s, err := ParseTypeMap(map[string]string{"email": "string", "retries": "int", "tags": "[string]"})
	require.NoError(t, err)

	assert.NoError(t, Validate(s, map[string]any{"email": "a@b.c", "retries": 3.0, "tags": []any{"x"}}))
	assert.NoError(t, Validate(nil, nil))

	err = Validate(s, map[string]any{"retries": "3", "tags": []any{"x"}})
	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)
	assert.Equal(t, "email", agg.Errors[0].Field)
	assert.Equal(t, "required", agg.Errors[0].Reason)
	assert.Equal(t, "retries", agg.Errors[1].Field)
	assert.Equal(t, "3", agg.Errors[1].Value)
	assert.Equal(t, `2 validation errors: field "email": required; field "retries": expected int, got string`, err.Error())

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "email", fe.Field)
}

func TestValidateFields(t *testing.T) {
	s := Schema{"a": Int(), "b": String()}
	assert.NoError(t, ValidateFields(s, map[string]any{"a": 1}, "a"))
	assert.NoError(t, ValidateFields(s, nil))
	assert.EqualError(t, ValidateFields(s, map[string]any{}, "c"), `field "c": not defined in schema`)
}

func TestCustom(t *testing.T) {
	positive := Custom("positive", func(v any) error {
		if n, ok := v.(int); !ok || n <= 0 {
			return fmt.Errorf("must be a positive int")
		}
		return nil
	})
	s := Schema{"n": positive}
	assert.NoError(t, Validate(s, map[string]any{"n": 2}))
	assert.EqualError(t, Validate(s, map[string]any{"n": -1}), `field "n": must be a positive int`)
}

func TestSchema_JSON(t *testing.T) {
	var s Schema
	require.NoError(t, json.Unmarshal([]byte(`{"a":"int","b":"[string]"}`), &s))
	assert.Equal(t, []string{"a", "b"}, s.Fields())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"int","b":"[string]"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"complex"}`), &s))

	_, err = json.Marshal(Schema{"a": nil})
	assert.Error(t, err)
}
