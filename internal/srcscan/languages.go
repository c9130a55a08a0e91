package srcscan

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

var (
	goGrammar     *sitter.Language
	goGrammarOnce sync.Once
)

// goLanguage returns the tree-sitter Go grammar. Lazily initialized on
// first call.
func goLanguage() *sitter.Language {
	goGrammarOnce.Do(func() {
		goGrammar = golang.GetLanguage()
	})
	return goGrammar
}

// isGoSource reports whether path names a non-test Go source file.
func isGoSource(path string) bool {
	base := filepath.Base(path)
	return strings.ToLower(filepath.Ext(base)) == ".go" && !strings.HasSuffix(base, "_test.go")
}

// skipDir reports whether a directory is outside the scanned package tree.
func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
