// Package params holds the per-statement parameter registries: the index registry
// mapping each named parameter to the positional ordinals it occupies, and the value
// registry mapping each name to its bound value.
package params

// Registry is the index and value registry of a single statement.
//
// Ordinals are 1-based and assigned in recording order. A name may own many
// ordinals. Values are keyed by name and the last write wins. A value with no
// recorded ordinals is legal; the reverse is reported when binding.
//
// Registry is not safe for concurrent use.
type Registry struct {
	indexes map[string][]int
	names   []string
	count   int

	values     map[string]Value
	valueNames []string
}

// NewRegistry creates an empty registry whose next ordinal is 1.
func NewRegistry() *Registry {
	return &Registry{
		indexes: make(map[string][]int),
		values:  make(map[string]Value),
	}
}

// Record appends the next ordinal to name's list and returns it.
func (r *Registry) Record(name string) int {
	r.count++
	if _, ok := r.indexes[name]; !ok {
		r.names = append(r.names, name)
	}
	r.indexes[name] = append(r.indexes[name], r.count)
	return r.count
}

// Lookup returns the ordinals recorded for name in recording order.
// It fails with ErrParameterNotFound when the name was never recorded.
func (r *Registry) Lookup(name string) ([]int, error) {
	ords, ok := r.indexes[name]
	if !ok {
		return nil, notFound(name)
	}
	out := make([]int, len(ords))
	copy(out, ords)
	return out, nil
}

// Count returns the number of ordinals recorded so far.
func (r *Registry) Count() int {
	return r.count
}

// Names returns the recorded parameter names in order of first occurrence.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Bind stores value under name, replacing any previous value.
// The name does not need to have been recorded.
func (r *Registry) Bind(name string, value Value) {
	if _, ok := r.values[name]; !ok {
		r.valueNames = append(r.valueNames, name)
	}
	r.values[name] = value
}

// Value returns the value bound to name.
func (r *Registry) Value(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// ValueNames returns every name with a value in order of first binding.
func (r *Registry) ValueNames() []string {
	out := make([]string, len(r.valueNames))
	copy(out, r.valueNames)
	return out
}

// Merge folds child into r. Every child ordinal is shifted by r's current count,
// appended under the same name, and r's count advances by child's count, so the
// child's relative ordering is preserved after r's existing ordinals. Child values
// are bound on r as they are, replacing whatever r held under the same name.
func (r *Registry) Merge(child *Registry) {
	if child == nil {
		return
	}

	offset := r.count
	for _, name := range child.names {
		if _, ok := r.indexes[name]; !ok {
			r.names = append(r.names, name)
		}
		for _, ord := range child.indexes[name] {
			r.indexes[name] = append(r.indexes[name], ord+offset)
		}
	}
	r.count += child.count

	for _, name := range child.valueNames {
		r.Bind(name, child.values[name])
	}
}

// Reset forgets every recorded ordinal, keeping the values. The next Record
// returns 1 again.
func (r *Registry) Reset() {
	r.indexes = make(map[string][]int)
	r.names = nil
	r.count = 0
}

// Apply sets every recorded parameter on sink. Names are visited in order of first
// occurrence and each of their ordinals receives exactly one setter call. A recorded
// name without a value fails with ErrParameterNotBound; values whose name was never
// recorded are ignored.
func (r *Registry) Apply(sink Sink) error {
	for _, name := range r.names {
		v, ok := r.Value(name)
		if !ok {
			return notBound(name)
		}
		ords, err := r.Lookup(name)
		if err != nil {
			return err
		}
		for _, ord := range ords {
			if err := v.ApplyTo(sink, ord); err != nil {
				return &ParameterError{Name: name, Err: err}
			}
		}
	}
	return nil
}

// Args binds every recorded parameter into a positional argument slice.
func (r *Registry) Args() ([]any, error) {
	list := NewArgList(r.count)
	if err := r.Apply(list); err != nil {
		return nil, err
	}
	return list.Args(), nil
}
