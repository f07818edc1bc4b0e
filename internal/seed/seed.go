// Package seed provides the fallback driver roster used when storage is
// empty.
//
// Rosters are written in CUE and checked against an embedded schema
// before they are decoded, so a bad roster file fails with a position
// rather than loading half a fleet.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fleetdesk/internal/driver"
)

//go:embed schema.cue
var schemaCUE []byte

//go:embed defaults.cue
var defaultsCUE []byte

// Error codes.
const (
	CodeRead      = "S001" // roster file unreadable
	CodeSyntax    = "S002" // CUE does not compile
	CodeMissing   = "S003" // no drivers field
	CodeSchema    = "S004" // roster violates the schema
	CodeDecode    = "S005" // roster does not decode
	CodeDuplicate = "S006" // two records share an id
)

// LoadError reports why a roster could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func cueError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil)}
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}

// Defaults returns the built-in roster.
func Defaults() ([]driver.Driver, error) {
	return Parse("defaults.cue", defaultsCUE)
}

// MustDefaults is Defaults for callers that cannot recover from a broken
// build.
func MustDefaults() []driver.Driver {
	ds, err := Defaults()
	if err != nil {
		panic(err)
	}
	return ds
}

// LoadFile reads a roster from a CUE file.
func LoadFile(path string) ([]driver.Driver, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: CodeRead, Message: err.Error()}
	}
	return Parse(path, src)
}

// Parse compiles src, checks its drivers list against the schema and
// decodes it.
func Parse(name string, src []byte) ([]driver.Driver, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, cueError(CodeSyntax, err)
	}
	data := ctx.CompileBytes(src, cue.Filename(name))
	if err := data.Err(); err != nil {
		return nil, cueError(CodeSyntax, err)
	}

	list := schema.Unify(data).LookupPath(cue.ParsePath("drivers"))
	if !data.LookupPath(cue.ParsePath("drivers")).Exists() {
		return nil, &LoadError{Code: CodeMissing, Message: fmt.Sprintf("%s: no drivers field", name)}
	}
	if err := list.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(CodeSchema, err)
	}

	var drivers []driver.Driver
	if err := list.Decode(&drivers); err != nil {
		return nil, cueError(CodeDecode, err)
	}

	seen := make(map[int64]bool, len(drivers))
	for _, d := range drivers {
		if seen[d.ID] {
			return nil, &LoadError{Code: CodeDuplicate, Message: fmt.Sprintf("%s: duplicate driver id %d", name, d.ID)}
		}
		seen[d.ID] = true
	}
	return drivers, nil
}
