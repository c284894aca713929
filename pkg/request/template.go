package request

import (
	"fmt"
	"strconv"
	"strings"
)

// Expand replaces placeholders in tmpl with record fields. {1}..{n} select a
// 1-based field, {id} is an alias for {1}. escape is applied to every
// substituted value and may be nil.
func Expand(tmpl string, rec *InputRecord, escape func(string) string) (string, error) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}

	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			b.WriteString(rest)
			break
		}
		closing += open

		name := rest[open+1 : closing]
		value, ok, err := lookupPlaceholder(name, rec)
		if err != nil {
			return "", err
		}
		b.WriteString(rest[:open])
		if !ok {
			// not a placeholder, keep it verbatim
			b.WriteString(rest[open : closing+1])
		} else {
			if escape != nil {
				value = escape(value)
			}
			b.WriteString(value)
		}
		rest = rest[closing+1:]
	}
	return b.String(), nil
}

func lookupPlaceholder(name string, rec *InputRecord) (string, bool, error) {
	if name == "id" {
		name = "1"
	}
	idx, err := strconv.Atoi(name)
	if err != nil {
		return "", false, nil
	}
	value, ok := rec.Field(idx)
	if !ok {
		fields := 0
		if rec != nil {
			fields = len(rec.Fields)
		}
		return "", false, fmt.Errorf("placeholder {%s} needs field %d but record has %d", name, idx, fields)
	}
	return value, true, nil
}

// MaxPlaceholder returns the highest field index referenced by tmpl
func MaxPlaceholder(tmpl string) int {
	maxIdx := 0
	for _, idx := range placeholderIndexes(tmpl) {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	return maxIdx
}

// CheckTemplate rejects numeric placeholders that no record field can fill
func CheckTemplate(tmpl string) error {
	for _, idx := range placeholderIndexes(tmpl) {
		if idx < 1 {
			return fmt.Errorf("placeholder {%d} is out of range, fields start at {1}", idx)
		}
	}
	return nil
}

func placeholderIndexes(tmpl string) []int {
	var indexes []int
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return indexes
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return indexes
		}
		name := rest[open+1 : open+closing]
		if name == "id" {
			name = "1"
		}
		if idx, err := strconv.Atoi(name); err == nil {
			indexes = append(indexes, idx)
		}
		rest = rest[open+closing+1:]
	}
}
