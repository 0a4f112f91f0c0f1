package render

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindMissing means the key has no binding.
	KindMissing Kind = iota

	// KindScalar is any non-array value. Blocks bound to it pass through.
	KindScalar

	// KindList is an ordered list of strings.
	KindList
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	default:
		return "missing"
	}
}

// Value is a render data value: a string list, a scalar or nothing.
type Value struct {
	kind  Kind
	items []string
}

// List returns a list value. The items are copied.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// Scalar returns a value that is present but not a list.
func Scalar() Value {
	return Value{kind: KindScalar}
}

// Missing returns the zero value.
func Missing() Value {
	return Value{}
}

// Kind returns the variant tag
func (v Value) Kind() Kind {
	return v.kind
}

// Items returns the list elements, or nil for scalar and missing values.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// Len returns the number of list elements.
func (v Value) Len() int {
	return len(v.items)
}
