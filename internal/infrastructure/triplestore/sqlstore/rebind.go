package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder styles.
const (
	// Positional emits "?" for every parameter occurrence.
	Positional = iota
	// Numbered emits "$n", one number per distinct parameter name.
	Numbered
)

// boundQuery is a query rewritten into driver placeholders.
// names lists the binding for each driver argument in order.
type boundQuery struct {
	text  string
	names []string
}

// rebind rewrites :name parameters. Quoted strings, quoted identifiers and
// "::" casts are left untouched.
func rebind(query string, style int) boundQuery {
	var sb strings.Builder
	sb.Grow(len(query))
	var names []string
	numbers := make(map[string]int)

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			end := skipQuoted(query, i, c)
			sb.WriteString(query[i:end])
			i = end - 1
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			sb.WriteString("::")
			i++
		case c == ':' && i+1 < len(query) && isNameStart(query[i+1]):
			j := i + 1
			for j < len(query) && isNamePart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			if style == Numbered {
				n, ok := numbers[name]
				if !ok {
					names = append(names, name)
					n = len(names)
					numbers[name] = n
				}
				sb.WriteString("$" + strconv.Itoa(n))
			} else {
				names = append(names, name)
				sb.WriteByte('?')
			}
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}
	return boundQuery{text: sb.String(), names: names}
}

// args resolves the driver arguments from bindings.
func (q boundQuery) args(bindings map[string]string) ([]any, error) {
	args := make([]any, len(q.names))
	for i, name := range q.names {
		v, ok := bindings[name]
		if !ok {
			return nil, fmt.Errorf("unbound query parameter :%s", name)
		}
		args[i] = v
	}
	return args, nil
}

// skipQuoted returns the index just past the quoted run starting at i.
// A doubled quote character is an escaped quote.
func skipQuoted(s string, i int, quote byte) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != quote {
			continue
		}
		if j+1 < len(s) && s[j+1] == quote {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
