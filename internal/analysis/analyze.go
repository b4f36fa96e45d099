package analysis

import (
	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/symbols"
)

// Analyze runs round two over one parsed file and returns the final state, whose
// global scope holds the file-level variables. A nil table is replaced by the symbols
// of the file itself.
func Analyze(path string, file *ast.File, table symbols.Table, emitter Emitter) *State {
	if table == nil {
		memory := symbols.NewMemoryTable()
		memory.Add(symbols.Collect(path, file))
		table = memory
	}
	st := NewState(table, emitter)
	if file != nil {
		st.ExecBlock(file.Stmts)
	}
	return st
}

// AnalyzeSource parses src and analyses it. Parse errors do not stop the analysis:
// the broken statements are reported as syntax errors and skipped.
func AnalyzeSource(path string, src []byte, table symbols.Table, emitter Emitter) (*State, error) {
	file, err := ast.Parse(src)
	if file == nil {
		return nil, err
	}
	return Analyze(path, file, table, emitter), nil
}
