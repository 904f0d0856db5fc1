package format

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// WriteEDN writes v as EDN. Map keys become kebab-case keywords
// (`groupId` -> `:group-id`); everything else maps onto vectors, strings,
// numbers, booleans and nil.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	var sb strings.Builder
	p := ednPrinter{sb: &sb, pretty: pretty}
	p.value(x, 0)
	sb.WriteByte('\n')
	_, err = io.WriteString(w, sb.String())
	return err
}

type ednPrinter struct {
	sb     *strings.Builder
	pretty bool
}

func (p ednPrinter) value(v any, depth int) {
	switch t := v.(type) {
	case nil:
		p.sb.WriteString("nil")
	case bool:
		p.sb.WriteString(strconv.FormatBool(t))
	case string:
		p.sb.WriteString(strconv.Quote(t))
	case float64:
		if t == float64(int64(t)) {
			p.sb.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			p.sb.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case []any:
		p.sb.WriteByte('[')
		for i, it := range t {
			p.sep(i, depth+1)
			p.value(it, depth+1)
		}
		p.close(len(t), depth, ']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.sb.WriteByte('{')
		for i, k := range keys {
			p.sep(i, depth+1)
			p.sb.WriteString(Keyword(k))
			p.sb.WriteByte(' ')
			p.value(t[k], depth+1)
		}
		p.close(len(keys), depth, '}')
	}
}

func (p ednPrinter) sep(i, depth int) {
	switch {
	case p.pretty:
		p.sb.WriteByte('\n')
		p.sb.WriteString(strings.Repeat("  ", depth))
	case i > 0:
		p.sb.WriteByte(' ')
	}
}

func (p ednPrinter) close(n, depth int, c byte) {
	if p.pretty && n > 0 {
		p.sb.WriteByte('\n')
		p.sb.WriteString(strings.Repeat("  ", depth))
	}
	p.sb.WriteByte(c)
}

// Keyword renders a JSON field name as an EDN keyword.
func Keyword(name string) string {
	var b strings.Builder
	b.WriteByte(':')
	prevLower := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ' || r == '_':
			b.WriteByte('-')
			prevLower = false
			continue
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
			continue
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}
