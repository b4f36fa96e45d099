package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasResolver(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		imports   map[string]string // alias -> name, empty alias for plain imports
		typeName  string
		expected  Name
	}{
		{
			name:      "Primitive type",
			namespace: `App\Product`,
			typeName:  "string",
			expected:  "string",
		},
		{
			name:      "Special type",
			namespace: `App\Product`,
			typeName:  "self",
			expected:  "self",
		},
		{
			name:      "Use statement",
			namespace: `App\Product`,
			imports:   map[string]string{"": `Symfony\Component\HttpFoundation\Request`},
			typeName:  "Request",
			expected:  `Symfony\Component\HttpFoundation\Request`,
		},
		{
			name:      "Use statement is case-insensitive",
			namespace: `App\Product`,
			imports:   map[string]string{"": `Symfony\Component\HttpFoundation\Request`},
			typeName:  "request",
			expected:  `Symfony\Component\HttpFoundation\Request`,
		},
		{
			name:      "Alias",
			namespace: `App\Product`,
			imports:   map[string]string{"SymfonyRequest": `Symfony\Component\HttpFoundation\Request`},
			typeName:  "SymfonyRequest",
			expected:  `Symfony\Component\HttpFoundation\Request`,
		},
		{
			name:      "Current namespace",
			namespace: `App\Product`,
			typeName:  "ProductEntity",
			expected:  `App\Product\ProductEntity`,
		},
		{
			name:      "Fully qualified name",
			namespace: `App\Product`,
			typeName:  `\App\Category\CategoryEntity`,
			expected:  `App\Category\CategoryEntity`,
		},
		{
			name:      "Relative name through import",
			namespace: `App\Product`,
			imports:   map[string]string{"": `Doctrine\ORM`},
			typeName:  `ORM\EntityManager`,
			expected:  `Doctrine\ORM\EntityManager`,
		},
		{
			name:      "Relative name against namespace",
			namespace: `App`,
			typeName:  `Product\ProductEntity`,
			expected:  `App\Product\ProductEntity`,
		},
		{
			name:      "Namespace keyword",
			namespace: `App`,
			typeName:  `namespace\Foo`,
			expected:  `App\Foo`,
		},
		{
			name:     "No namespace",
			typeName: "ProductEntity",
			expected: "ProductEntity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewAliasResolver(tt.namespace)
			for alias, name := range tt.imports {
				resolver.AddImport(name, alias)
			}
			assert.Equal(t, tt.expected, resolver.Resolve(tt.typeName))
		})
	}
}

func TestAliasResolverSetNamespaceResetsImports(t *testing.T) {
	resolver := NewAliasResolver(`App`)
	resolver.AddImport(`Vendor\Foo`, "")
	assert.Equal(t, Name(`Vendor\Foo`), resolver.Resolve("Foo"))

	resolver.SetNamespace(`\Other\`)
	assert.Equal(t, "Other", resolver.Namespace())
	assert.Equal(t, Name(`Other\Foo`), resolver.Resolve("Foo"))
}

func TestNilAliasResolver(t *testing.T) {
	var resolver *AliasResolver
	assert.Equal(t, Name(`Foo\Bar`), resolver.Resolve(`\Foo\Bar`))
}

func TestName(t *testing.T) {
	n := NewName(` \App\Product\ProductEntity `)
	assert.Equal(t, Name(`App\Product\ProductEntity`), n)
	assert.Equal(t, "ProductEntity", n.Short())
	assert.Equal(t, `App\Product`, n.Namespace())
	assert.True(t, n.IsQualified())
	assert.Equal(t, `app\product\productentity`, n.Key())
	assert.True(t, n.EqualFold(`APP\product\ProductEntity`))

	global := NewName("strlen")
	assert.Equal(t, "", global.Namespace())
	assert.False(t, global.IsQualified())
}
