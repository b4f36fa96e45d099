package symbols

import (
	"strings"
)

// AliasResolver resolves written PHP type names to fully qualified names.
// It knows the namespace of the file and the imports declared with "use".
type AliasResolver struct {
	// Map of import alias (lower-cased) to fully qualified name
	imports map[string]Name
	// Current namespace
	namespace string
}

// NewAliasResolver creates a resolver for the given namespace.
func NewAliasResolver(namespace string) *AliasResolver {
	return &AliasResolver{
		imports:   make(map[string]Name),
		namespace: strings.Trim(namespace, "\\"),
	}
}

// AddImport registers a "use" import. An empty alias uses the last segment of the name.
func (r *AliasResolver) AddImport(name string, alias string) {
	fqcn := NewName(name)
	if alias == "" {
		alias = fqcn.Short()
	}
	r.imports[strings.ToLower(alias)] = fqcn
}

// SetNamespace switches the current namespace. Imports are reset because they are
// scoped to a namespace block.
func (r *AliasResolver) SetNamespace(namespace string) {
	r.namespace = strings.Trim(namespace, "\\")
	r.imports = make(map[string]Name)
}

// Namespace returns the current namespace.
func (r *AliasResolver) Namespace() string {
	return r.namespace
}

// Resolve resolves a PHP type name to its fully qualified name.
//
// Primitive and special names (string, self, static, ...) resolve to themselves.
// A leading backslash marks an already fully qualified name.
// Relative names resolve their first segment through the imports.
// Everything else is assumed to live in the current namespace.
func (r *AliasResolver) Resolve(typeName string) Name {
	if r == nil {
		return NewName(typeName)
	}

	if IsPrimitiveType(typeName) || IsSpecialType(typeName) {
		return Name(typeName)
	}

	if strings.HasPrefix(typeName, "\\") {
		return NewName(typeName)
	}

	if strings.HasPrefix(strings.ToLower(typeName), "namespace\\") {
		return r.inNamespace(typeName[len("namespace\\"):])
	}

	head, rest, qualified := strings.Cut(typeName, "\\")
	if fqcn, ok := r.imports[strings.ToLower(head)]; ok {
		if qualified {
			return Name(string(fqcn) + "\\" + rest)
		}
		return fqcn
	}

	return r.inNamespace(typeName)
}

func (r *AliasResolver) inNamespace(typeName string) Name {
	if r.namespace == "" {
		return NewName(typeName)
	}
	return Name(r.namespace + "\\" + typeName)
}

// IsPrimitiveType checks if the given type is a PHP primitive type.
// Primitive types are never resolved against namespaces.
func IsPrimitiveType(typeName string) bool {
	switch strings.ToLower(typeName) {
	case "string", "int", "integer", "float", "double", "bool", "boolean",
		"array", "object", "callable", "iterable", "void", "null",
		"mixed", "never", "resource", "false", "true", "number":
		return true
	default:
		return false
	}
}

// IsSpecialType checks if the given type refers to the current class context
// or is a doc-comment pseudo type.
func IsSpecialType(typeName string) bool {
	switch strings.ToLower(typeName) {
	case "self", "static", "parent", "$this", "class-string", "array-key":
		return true
	default:
		return false
	}
}
