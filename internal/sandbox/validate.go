package sandbox

import (
	"sort"
	"strings"

	"algoscope/internal/errors"
	"algoscope/internal/pyast"
)

// deniedCalls are names that must never be called, directly or as a method.
var deniedCalls = map[string]bool{
	"eval":       true,
	"exec":       true,
	"compile":    true,
	"__import__": true,
	"open":       true,
	"input":      true,
	"raw_input":  true,
	"file":       true,
	"execfile":   true,
	"reload":     true,
	"vars":       true,
	"locals":     true,
	"globals":    true,
	"dir":        true,
	"getattr":    true,
	"setattr":    true,
	"delattr":    true,
	"hasattr":    true,
	"breakpoint": true,
	"memoryview": true,
	"help":       true,
}

// DeniedCalls returns the names Validate rejects as call targets, sorted.
func DeniedCalls() []string {
	out := make([]string, 0, len(deniedCalls))
	for name := range deniedCalls {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// Validate walks the whole program once and rejects imports, calls to denied
// names and dunder attribute access. The first violation is returned as a
// SecurityViolation carrying its line.
func Validate(prog *pyast.Program) error {
	if prog == nil {
		return errors.New(errors.SecurityViolation, "no program to validate", nil)
	}
	var violation *errors.Error
	prog.Inspect(func(n pyast.Node) bool {
		if violation != nil {
			return false
		}
		switch x := n.(type) {
		case *pyast.Import:
			kind := "Import"
			if x.From {
				kind = "ImportFrom"
			}
			violation = errors.Newf(errors.SecurityViolation, "Forbidden operation: %s of %s", kind, x.Module).AtLine(x.Line())
		case *pyast.Call:
			switch fn := x.Func.(type) {
			case *pyast.Name:
				if deniedCalls[fn.ID] {
					violation = errors.Newf(errors.SecurityViolation, "Forbidden function call: %s", fn.ID).AtLine(x.Line())
				}
			case *pyast.Attribute:
				if deniedCalls[fn.Attr] {
					violation = errors.Newf(errors.SecurityViolation, "Forbidden method call: %s", fn.Attr).AtLine(x.Line())
				}
			}
		case *pyast.Attribute:
			if isDunder(x.Attr) {
				violation = errors.Newf(errors.SecurityViolation, "Forbidden attribute access: %s", x.Attr).AtLine(x.Line())
			}
		}
		return violation == nil
	})
	if violation != nil {
		return violation
	}
	return nil
}
