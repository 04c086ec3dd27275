package domain

import "strings"

// Separator joins namespace and key in a composite identifier.
const Separator = "^"

// GlobalNamespace is the namespace used when a command names none.
const GlobalNamespace = ""

// Key is a fully-qualified key.
type Key struct {
	Namespace string
	Name      string
}

// NewKey builds a Key after checking both components.
func NewKey(namespace, name string) (Key, error) {
	if err := ValidateComponent("namespace", namespace); err != nil {
		return Key{}, err
	}
	if err := ValidateComponent("key", name); err != nil {
		return Key{}, err
	}
	return Key{Namespace: namespace, Name: name}, nil
}

// SplitKey splits a composite "namespace^key" identifier at the first
// separator. hasNamespace is false when there is no separator. The parts are
// not validated, so a key part may still contain a separator.
func SplitKey(composite string) (namespace, name string, hasNamespace bool) {
	namespace, name, hasNamespace = strings.Cut(composite, Separator)
	if !hasNamespace {
		return GlobalNamespace, composite, false
	}
	return namespace, name, true
}

// String renders the canonical "namespace^key" form.
func (k Key) String() string {
	return k.Namespace + Separator + k.Name
}

// ValidateComponent rejects a namespace or key component that contains the
// reserved separator.
func ValidateComponent(field, value string) error {
	if strings.Contains(value, Separator) {
		return ErrNamespaceSyntax.WithDetails(field + " " + quote(value) + " contains '" + Separator + "'")
	}
	return nil
}

func quote(s string) string {
	return "'" + s + "'"
}
