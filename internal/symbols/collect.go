package symbols

import (
	"strings"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/phpdoc"
	"github.com/shopware/phpflow/internal/phptype"
)

// Collect runs round one over a parsed file: it records every class, interface,
// trait, enum and function with fully qualified names and resolved type texts.
func Collect(path string, file *ast.File) *FileSymbols {
	c := &collector{
		resolver: NewAliasResolver(""),
		out:      &FileSymbols{Path: path},
	}
	if file != nil {
		c.stmts(file.Stmts)
	}
	return c.out
}

type collector struct {
	resolver *AliasResolver
	out      *FileSymbols
}

func (c *collector) stmts(list []ast.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *collector) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Namespace:
		c.resolver.SetNamespace(s.Name)
		if s.Braced {
			c.stmts(s.Body)
			c.resolver.SetNamespace("")
		}
	case *ast.Use:
		if s.Type != "" {
			return
		}
		for _, item := range s.Items {
			c.resolver.AddImport(item.Name, item.Alias)
		}
	case *ast.ClassDecl:
		c.class(s)
	case *ast.FunctionDecl:
		c.function(s)
	case *ast.Block:
		c.stmts(s.Stmts)
	case *ast.If:
		// conditional declarations such as "if (!function_exists('x')) { function x() {} }"
		c.stmts(s.Then)
		for _, elseIf := range s.ElseIfs {
			c.stmts(elseIf.Body)
		}
		c.stmts(s.Else)
	}
}

func (c *collector) declaredName(name string) Name {
	if ns := c.resolver.Namespace(); ns != "" {
		return Name(ns + "\\" + name)
	}
	return NewName(name)
}

func (c *collector) class(s *ast.ClassDecl) {
	if s.Name == "" {
		return
	}
	class := &Class{
		Name:       c.declaredName(s.Name),
		Kind:       s.Type,
		Abstract:   s.Abstract,
		Methods:    make(map[string]Method),
		Properties: make(map[string]Property),
		Path:       c.out.Path,
		Line:       s.Range().Start.Line + 1,
	}

	if class.IsInterface() {
		for _, ext := range s.Extends {
			class.Interfaces = append(class.Interfaces, c.resolver.Resolve(ext))
		}
	} else if len(s.Extends) > 0 {
		class.Parent = c.resolver.Resolve(s.Extends[0])
	}
	for _, impl := range s.Implements {
		class.Interfaces = append(class.Interfaces, c.resolver.Resolve(impl))
	}

	for _, prop := range s.Properties {
		typ := prop.Type
		if typ == "" {
			if doc := docBlock(prop.Doc()); doc != nil {
				typ, _ = doc.VarType(prop.Name)
			}
		}
		class.Properties[prop.Name] = Property{
			Name:   prop.Name,
			Type:   c.typeText(typ),
			Static: prop.Static,
			Line:   prop.Range().Start.Line + 1,
		}
	}

	for _, cst := range s.Consts {
		class.Constants = append(class.Constants, cst.Name)
	}

	for _, m := range s.Methods {
		doc := docBlock(m.Doc())
		method := Method{
			Name:       m.Name,
			Params:     c.params(m.Params, doc),
			ReturnType: c.returnType(m.ReturnType, doc),
			Static:     m.Static,
			Line:       m.Range().Start.Line + 1,
		}
		class.Methods[strings.ToLower(m.Name)] = method

		if strings.EqualFold(m.Name, "__construct") {
			for i, p := range m.Params {
				if !p.Promoted {
					continue
				}
				class.Properties[p.Name] = Property{
					Name: p.Name,
					Type: method.Params[i].Type,
					Line: p.Loc.Start.Line + 1,
				}
			}
		}
	}

	c.out.Classes = append(c.out.Classes, class)
}

func (c *collector) function(s *ast.FunctionDecl) {
	doc := docBlock(s.Doc())
	c.out.Functions = append(c.out.Functions, &Function{
		Name:       c.declaredName(s.Name),
		Params:     c.params(s.Params, doc),
		ReturnType: c.returnType(s.ReturnType, doc),
		Path:       c.out.Path,
		Line:       s.Range().Start.Line + 1,
	})
}

func (c *collector) params(params []ast.Param, doc *phpdoc.Block) []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		typ := p.Type
		if typ == "" {
			typ, _ = doc.ParamType(p.Name)
		}
		if typ == "" && p.Doc != nil {
			typ, _ = phpdoc.Parse(p.Doc.Text).VarType(p.Name)
		}
		out = append(out, Param{
			Name:     p.Name,
			Type:     c.typeText(typ),
			Optional: p.Default != nil || p.Variadic,
			Variadic: p.Variadic,
			ByRef:    p.ByRef,
		})
	}
	return out
}

func (c *collector) returnType(declared string, doc *phpdoc.Block) string {
	if declared == "" {
		declared, _ = doc.ReturnType()
	}
	return c.typeText(declared)
}

func (c *collector) typeText(text string) string {
	return ResolveTypeText(text, c.resolver)
}

// ResolveTypeText rewrites class names in written type text to fully qualified form.
// Text that does not parse as a type is returned unchanged.
func ResolveTypeText(text string, r *AliasResolver) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	u, err := phptype.Parse(text)
	if err != nil {
		return text
	}
	return u.Resolve(func(written string) string {
		return string(r.Resolve(written))
	}).String()
}

func docBlock(doc *ast.DocComment) *phpdoc.Block {
	if doc == nil {
		return nil
	}
	return phpdoc.Parse(doc.Text)
}
