package services

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var numberedDoc = regexp.MustCompile(`^(\d+)\.? `)

// Numbered method docs read "N. Name ..." in English, counting up from 1
func TestServiceMethodDocs(t *testing.T) {
	files, err := filepath.Glob("*_service.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	fset := token.NewFileSet()
	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		require.NoError(t, err)

		next := 1
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || fn.Doc == nil {
				continue
			}
			doc := fn.Doc.Text()
			m := numberedDoc.FindStringSubmatch(doc)
			if m == nil {
				continue
			}
			assert.True(t, strings.HasPrefix(doc, m[1]+". "+fn.Name.Name+" "), "%s: %q", name, doc)
			n, err := strconv.Atoi(m[1])
			require.NoError(t, err)
			assert.Equal(t, next, n, "%s: %s", name, fn.Name.Name)
			next++
			for _, r := range doc {
				if unicode.Is(unicode.Han, r) {
					assert.Failf(t, "mixed register", "%s: %s", name, fn.Name.Name)
					break
				}
			}
		}
	}
}
