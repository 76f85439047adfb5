package environ

import (
	"strconv"
	"strings"

	"github.com/cpsource/shvars/pkg/scope"
	"github.com/cpsource/shvars/pkg/variable"
)

// InvalidEnv holds the raw "NAME=VALUE" entries Import could not bind
// as ordinary shell variables because NAME is not a valid identifier —
// an environment inherited from a non-shell parent process routinely
// contains names like "BASH_FUNC_foo%%" sentinels gone stale, or
// names with a dot or dash, that bash quarantines rather than rejects
// outright. Quarantined entries take precedence over anything the
// temporary environment would otherwise supply for the same literal
// name: on export, invalid_env shadows tempenv.
type InvalidEnv struct {
	Raw []string
}

// isValidIdentifier reports whether name is a legal shell variable
// name: an ASCII letter or underscore, followed by letters, digits, or
// underscores.
func isValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isAlpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if i == 0 {
			if !isAlpha {
				return false
			}
			continue
		}
		if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

// Import parses a flat []string environment (the os.Environ() form)
// into a fresh scope.Stack whose global frame holds one Exported
// variable per valid entry, plus an InvalidEnv of whatever could not
// be bound. BASH_FUNC_name%%=, BASH_ARRAY_name=, and BASH_ASSOC_name=
// entries are decoded back into function and array variables, the
// inverse of Export's synthesis.
func Import(env []string) (*scope.Stack, InvalidEnv) {
	stack := scope.New(nil)
	var invalid InvalidEnv

	for _, entry := range env {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			invalid.Raw = append(invalid.Raw, entry)
			continue
		}

		switch {
		case strings.HasPrefix(name, funcPrefix) && strings.HasSuffix(name, funcSuffix):
			base := strings.TrimSuffix(strings.TrimPrefix(name, funcPrefix), funcSuffix)
			if !isValidIdentifier(base) {
				invalid.Raw = append(invalid.Raw, entry)
				continue
			}
			body := extractFunctionBody(value)
			v := variable.NewFunction(base, textFunctionBody(body))
			v.Attrs = v.Attrs.Set(variable.Exported).Set(variable.Imported)
			stack.Global().Set(base, v)

		case strings.HasPrefix(name, arrayPrefix):
			base := strings.TrimPrefix(name, arrayPrefix)
			if !isValidIdentifier(base) {
				invalid.Raw = append(invalid.Raw, entry)
				continue
			}
			v := variable.NewIndexedArray(base)
			v.Attrs = v.Attrs.Set(variable.Exported).Set(variable.Imported)
			for _, kv := range parseCompoundBody(stripParens(value)) {
				idx, err := strconv.Atoi(kv.key)
				if err != nil {
					continue
				}
				_ = v.SetAt(idx, kv.value)
			}
			stack.Global().Set(base, v)

		case strings.HasPrefix(name, assocPrefix):
			base := strings.TrimPrefix(name, assocPrefix)
			if !isValidIdentifier(base) {
				invalid.Raw = append(invalid.Raw, entry)
				continue
			}
			v := variable.NewAssocArray(base)
			v.Attrs = v.Attrs.Set(variable.Exported).Set(variable.Imported)
			for _, kv := range parseCompoundBody(stripParens(value)) {
				_ = v.SetAtKey(kv.key, kv.value)
			}
			stack.Global().Set(base, v)

		case isValidIdentifier(name):
			v := variable.NewScalar(name, value)
			v.Attrs = v.Attrs.Set(variable.Exported).Set(variable.Imported)
			stack.Global().Set(name, v)

		default:
			invalid.Raw = append(invalid.Raw, entry)
		}
	}

	return stack, invalid
}

// extractFunctionBody pulls the brace-delimited body out of the
// BASH_FUNC_ encoding "() { body\n}".
func extractFunctionBody(encoded string) string {
	open := strings.Index(encoded, "{")
	closeIdx := strings.LastIndex(encoded, "}")
	if open < 0 || closeIdx < 0 || closeIdx <= open {
		return ""
	}
	return strings.TrimSpace(encoded[open+1 : closeIdx])
}

func stripParens(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return s
}

type compoundKV struct {
	key   string
	value string
}

// parseCompoundBody parses a sequence of `[key]="value"` tokens, the
// format Describe and projectOne emit for indexed and associative
// arrays. It tolerates trailing garbage by stopping at the first token
// it cannot parse rather than erroring the whole import — a single
// malformed array in an inherited environment should not take down
// every other variable.
func parseCompoundBody(body string) []compoundKV {
	var out []compoundKV
	i := 0
	for i < len(body) {
		for i < len(body) && body[i] == ' ' {
			i++
		}
		if i >= len(body) || body[i] != '[' {
			break
		}
		end := strings.IndexByte(body[i:], ']')
		if end < 0 {
			break
		}
		key := body[i+1 : i+end]
		i += end + 1
		if i >= len(body) || body[i] != '=' {
			break
		}
		i++
		if i >= len(body) || body[i] != '"' {
			break
		}
		quoted, err := strconv.QuotedPrefix(body[i:])
		if err != nil {
			break
		}
		val, err := strconv.Unquote(quoted)
		if err != nil {
			break
		}
		out = append(out, compoundKV{key: key, value: val})
		i += len(quoted)
	}
	return out
}
