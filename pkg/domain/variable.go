package domain

// VariableValueFactory creates a flow variable's initial value and re-links
// its transient references after the execution is restored from storage.
type VariableValueFactory interface {
	CreateInitialValue(rc RequestContext) (any, error)
	RestoreReferences(value any, rc RequestContext) error
}

// Destroyer is implemented by variable values that release resources when
// their session ends.
type Destroyer interface {
	Destroy()
}

// FlowVariable is a named value created in flow scope when a session starts.
type FlowVariable struct {
	Name    string
	Factory VariableValueFactory
}

// NewFlowVariable creates a flow variable.
func NewFlowVariable(name string, factory VariableValueFactory) *FlowVariable {
	return &FlowVariable{Name: name, Factory: factory}
}

// Create stores the initial value in flow scope.
func (v *FlowVariable) Create(rc RequestContext) error {
	value, err := v.Factory.CreateInitialValue(rc)
	if err != nil {
		return err
	}
	rc.FlowScope().Put(v.Name, value)
	return nil
}

// Restore re-links the current value in flow scope.
func (v *FlowVariable) Restore(rc RequestContext) error {
	return v.Factory.RestoreReferences(rc.FlowScope().Get(v.Name), rc)
}

// Destroy removes the value from flow scope, releasing it if it is a Destroyer.
func (v *FlowVariable) Destroy(rc RequestContext) {
	if d, ok := rc.FlowScope().Remove(v.Name).(Destroyer); ok {
		d.Destroy()
	}
}

// ValueFactory is a VariableValueFactory built from functions. A nil Restore is a no-op.
type ValueFactory struct {
	Create  func(rc RequestContext) (any, error)
	Restore func(value any, rc RequestContext) error
}

func (f ValueFactory) CreateInitialValue(rc RequestContext) (any, error) {
	return f.Create(rc)
}

func (f ValueFactory) RestoreReferences(value any, rc RequestContext) error {
	if f.Restore == nil {
		return nil
	}
	return f.Restore(value, rc)
}

// Constant returns a factory whose initial value is produced by fn, with no
// references to restore.
func Constant(fn func() any) VariableValueFactory {
	return ValueFactory{Create: func(RequestContext) (any, error) { return fn(), nil }}
}
