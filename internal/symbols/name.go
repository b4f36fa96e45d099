package symbols

import "strings"

// Name is a PHP class, interface or function name.
// It is stored without a leading namespace separator.
type Name string

// NewName normalises a written name into a Name.
func NewName(s string) Name {
	return Name(strings.TrimPrefix(strings.TrimSpace(s), "\\"))
}

// Key returns the lookup key for the name. PHP class and function names are case-insensitive.
func (n Name) Key() string {
	return strings.ToLower(string(n))
}

// Short returns the last segment of a qualified name.
func (n Name) Short() string {
	s := string(n)
	if i := strings.LastIndex(s, "\\"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Namespace returns everything before the last segment, or "" for global names.
func (n Name) Namespace() string {
	s := string(n)
	if i := strings.LastIndex(s, "\\"); i >= 0 {
		return s[:i]
	}
	return ""
}

// IsQualified reports whether the name contains a namespace separator.
func (n Name) IsQualified() bool {
	return strings.Contains(string(n), "\\")
}

// EqualFold compares two names the way PHP does.
func (n Name) EqualFold(other Name) bool {
	return strings.EqualFold(string(n), string(other))
}

func (n Name) String() string {
	return string(n)
}
