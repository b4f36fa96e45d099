package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump prints the typed tree below n, one node per line, indented by depth.
func Dump(w io.Writer, n Node) {
	dump(w, n, 0)
}

func dump(w io.Writer, n Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	label := describe(n)
	if label != "" {
		label = " " + label
	}
	fmt.Fprintf(w, "%s%s%s [%s]\n", indent, n.Kind(), label, n.Range())

	if s, ok := n.(Stmt); ok && s.Doc() != nil {
		fmt.Fprintf(w, "%s  doc: %q\n", indent, s.Doc().Text)
	}

	for _, child := range n.Children() {
		dump(w, child, depth+1)
	}
}

func describe(n Node) string {
	switch n := n.(type) {
	case *Variable:
		return "$" + n.Name
	case *IntLit:
		return fmt.Sprint(n.Value)
	case *FloatLit:
		return fmt.Sprint(n.Value)
	case *StringLit:
		if n.Interpolated {
			return "interpolated"
		}
		return fmt.Sprintf("%q", n.Value)
	case *BoolLit:
		return fmt.Sprint(n.Value)
	case *Name:
		return n.Value
	case *Binary:
		return n.Op
	case *Unary:
		return n.Op
	case *CompoundAssign:
		return n.Op + "="
	case *IncDec:
		if n.Prefix {
			return n.Op + "x"
		}
		return "x" + n.Op
	case *MethodCall:
		return "->" + n.Method
	case *StaticCall:
		return n.Class + "::" + n.Method
	case *PropertyFetch:
		return "->" + n.Property
	case *StaticPropertyFetch:
		return n.Class + "::$" + n.Property
	case *ClassConstFetch:
		return n.Class + "::" + n.Const
	case *New:
		return n.Class
	case *Cast:
		return n.Type
	case *Closure:
		return signature(n.Params, n.ReturnType)
	case *ArrowFunc:
		return signature(n.Params, n.ReturnType)
	case *FunctionDecl:
		return n.Name + signature(n.Params, n.ReturnType)
	case *MethodDecl:
		return n.Name + signature(n.Params, n.ReturnType)
	case *PropertyDecl:
		return strings.TrimSpace(n.Type + " $" + n.Name)
	case *ClassConst:
		return n.Name
	case *ClassDecl:
		return n.Type + " " + n.Name
	case *Namespace:
		return n.Name
	case *Use:
		names := make([]string, 0, len(n.Items))
		for _, item := range n.Items {
			if item.Alias != "" {
				names = append(names, item.Name+" as "+item.Alias)
			} else {
				names = append(names, item.Name)
			}
		}
		return strings.Join(names, ", ")
	case *Global:
		return strings.Join(n.Names, ", ")
	case *UnsupportedExpr:
		return n.Production
	case *UnsupportedStmt:
		return n.Production
	case *BadExpr:
		return fmt.Sprint(n.Err)
	case *BadStmt:
		return fmt.Sprint(n.Err)
	}
	return ""
}

func signature(params []Param, returnType string) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, strings.TrimSpace(p.Type+" $"+p.Name))
	}
	s := "(" + strings.Join(parts, ", ") + ")"
	if returnType != "" {
		s += ": " + returnType
	}
	return s
}
