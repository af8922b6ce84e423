// Package schema validates untyped attribute maps against a declared type
// per field.
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "email": "string",
//	    "tags":  "[string]",
//	})
//	err = schema.Validate(s, map[string]any{"email": "ada@example.com"})
//	// field "tags": required
//
// Numbers decoded from JSON (float64 or json.Number) satisfy "int" when
// they are whole.
package schema
