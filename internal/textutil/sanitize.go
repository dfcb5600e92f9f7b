package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UnknownName is returned when a name sanitizes to nothing.
const UnknownName = "UnknownMedia"

// fileNameReplacer replaces characters that are illegal in filenames on the
// filesystems media players commonly read (NTFS/SMB shares included).
var fileNameReplacer = strings.NewReplacer(
	"<", "-",
	">", "-",
	":", "-",
	"\"", "-",
	"/", "-",
	"\\", "-",
	"|", "-",
	"?", "-",
	"*", "-",
)

// SanitizeFileName makes name safe to use as a single path component. Illegal
// characters become dashes, control characters are dropped, the result is NFC
// normalized, and trailing dots and spaces are removed. An empty result yields
// UnknownName.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(name)
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = collapseSpaces(name)
	name = strings.TrimRight(strings.TrimSpace(name), ". ")
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownName
	}
	return name
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// SplitList splits a delimiter-separated list and normalizes the parts with
// NormalizeList.
func SplitList(value, sep string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return NormalizeList(strings.Split(value, sep))
}

// NormalizeList trims entries and drops empty ones and duplicates while
// keeping input order. It returns nil when nothing remains.
func NormalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
