// internal/report/dump.go
package report

import (
	"io"

	"github.com/k0kubun/pp"
)

// Dump pretty-prints v for debugging.
func Dump(w io.Writer, v any) error {
	_, err := pp.Fprintln(w, v)
	return err
}
