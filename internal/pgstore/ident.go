package pgstore

import (
	"fmt"
	"regexp"
)

var identRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// sanitizeIdentifier validates table/column names before they are
// interpolated into a query string, the same discipline the teacher's
// SQLRenderer.Ident applies (sql_template_renderer.go). Store/IndexStore
// table names are operator-supplied configuration, not request input,
// but the check costs nothing and catches typos early.
func sanitizeIdentifier(name string) string {
	if !identRegex.MatchString(name) {
		panic(fmt.Sprintf("pgstore: invalid SQL identifier: %q", name))
	}
	return `"` + name + `"`
}
