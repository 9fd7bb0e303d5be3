package submit

// MapForm is an in-memory Form. Reset keeps every field present but empty,
// like a browser form reset.
type MapForm struct {
	values map[string]string
}

// NewMapForm returns a form holding a copy of values.
func NewMapForm(values map[string]string) *MapForm {
	f := &MapForm{values: make(map[string]string, len(values))}
	for k, v := range values {
		f.values[k] = v
	}
	return f
}

// Set adds or overwrites a field.
func (f *MapForm) Set(name, value string) {
	f.values[name] = value
}

// Get returns a field's value, or "" when the field is unknown.
func (f *MapForm) Get(name string) string {
	return f.values[name]
}

func (f *MapForm) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *MapForm) Reset() {
	for name := range f.values {
		f.values[name] = ""
	}
}
