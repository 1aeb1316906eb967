package querydef

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// LoadError describes a failure while loading a CUE query definition.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// LoadFile reads and decodes one CUE query definition file.
//
// The definition may live under a top-level "query" field or be the whole
// document. Uses the CUE SDK's Go API directly (not a CLI subprocess).
func LoadFile(path string) (*QueryDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("reading file: %v", err)}
	}
	def, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	return def, nil
}

// Parse decodes CUE source bytes into a QueryDef.
func Parse(src []byte) (*QueryDef, error) {
	ctx := cuecontext.New()

	value := ctx.CompileBytes(src)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("compiling CUE: %v", err)}
	}

	// Prefer a top-level "query" field when present.
	if q := value.LookupPath(cue.ParsePath("query")); q.Exists() {
		value = q
	}

	def := &QueryDef{}
	if err := value.Decode(def); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("decoding query definition: %v", err)}
	}
	if def.Entity == "" {
		return nil, &LoadError{Message: "query definition needs an entity"}
	}
	return def, nil
}
