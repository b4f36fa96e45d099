package symbols

import "strings"

// Param is a declared function or method parameter. Type holds the resolved type text.
type Param struct {
	Name     string `msgpack:"name"`
	Type     string `msgpack:"type"`
	Optional bool   `msgpack:"optional"`
	Variadic bool   `msgpack:"variadic"`
	ByRef    bool   `msgpack:"by_ref"`
}

// Method is a class method.
type Method struct {
	Name       string  `msgpack:"name"`
	Params     []Param `msgpack:"params"`
	ReturnType string  `msgpack:"return_type"`
	Static     bool    `msgpack:"static"`
	Line       int     `msgpack:"line"`
}

// Property is a class property, promoted constructor parameters included.
type Property struct {
	Name   string `msgpack:"name"`
	Type   string `msgpack:"type"`
	Static bool   `msgpack:"static"`
	Line   int    `msgpack:"line"`
}

// Class is a class, interface, trait or enum found in round one.
type Class struct {
	Name       Name                `msgpack:"name"`
	Kind       string              `msgpack:"kind"`
	Parent     Name                `msgpack:"parent"`
	Interfaces []Name              `msgpack:"interfaces"`
	Methods    map[string]Method   `msgpack:"methods"`
	Properties map[string]Property `msgpack:"properties"`
	Constants  []string            `msgpack:"constants"`
	Abstract   bool                `msgpack:"abstract"`
	Path       string              `msgpack:"path"`
	Line       int                 `msgpack:"line"`
}

// IsInterface reports whether the class is an interface.
func (c *Class) IsInterface() bool {
	return c.Kind == "interface"
}

// Method looks up a method declared on this class itself. Method names are case-insensitive.
func (c *Class) Method(name string) (Method, bool) {
	m, ok := c.Methods[strings.ToLower(name)]
	return m, ok
}

// Property looks up a property declared on this class itself.
func (c *Class) Property(name string) (Property, bool) {
	p, ok := c.Properties[name]
	return p, ok
}

// Supertypes returns the parent and the implemented interfaces.
// For interfaces, the extended interfaces are stored in Interfaces.
func (c *Class) Supertypes() []Name {
	out := make([]Name, 0, len(c.Interfaces)+1)
	if c.Parent != "" {
		out = append(out, c.Parent)
	}
	return append(out, c.Interfaces...)
}

// Function is a global or namespaced function.
type Function struct {
	Name       Name    `msgpack:"name"`
	Params     []Param `msgpack:"params"`
	ReturnType string  `msgpack:"return_type"`
	Path       string  `msgpack:"path"`
	Line       int     `msgpack:"line"`
}

// FileSymbols is everything round one found in one file.
type FileSymbols struct {
	Path      string      `msgpack:"path"`
	Classes   []*Class    `msgpack:"classes"`
	Functions []*Function `msgpack:"functions"`
}
