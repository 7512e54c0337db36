// Package sanitizer provides filename sanitization utilities.
// It turns an arbitrary entry name into one that cloud-sync clients
// (OneDrive, Dropbox) accept, or rejects the name outright.
package sanitizer

import (
	"strconv"
	"strings"
	"unicode"
)

// illegalChars are the characters the target filesystems refuse in names.
const illegalChars = `\/*?:"<>|`

// reservedPrefix marks Office lock files written next to open documents.
const reservedPrefix = "~$"

// reservedNames are device names, sync-lock and sync-metadata markers that
// must never be synced. Matching is exact and case-sensitive.
var reservedNames = buildReservedNames()

func buildReservedNames() map[string]struct{} {
	names := []string{".lock", "CON", "PRN", "AUX", "NUL", "_vti_", "desktop.ini"}
	for i := range 10 {
		names = append(names, "COM"+strconv.Itoa(i), "LPT"+strconv.Itoa(i))
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return set
}

// Normalize returns the cleaned form of name, or "" when the entry must be
// left alone. Rules apply in order: drop illegal characters, drop a single
// leading dot, drop non-ASCII runes, reject reserved names and prefixes,
// then trim whitespace from the end of the stem.
func Normalize(name string) string {
	cleaned := stripIllegal(name)
	cleaned = strings.TrimPrefix(cleaned, ".")
	cleaned = stripNonASCII(cleaned)

	if IsReserved(cleaned) {
		return ""
	}

	stem, ext := SplitExt(cleaned)

	return strings.TrimRightFunc(stem, isTrailingSpace) + ext
}

// IsReserved reports whether name is a reserved name or starts with the
// reserved lock-file prefix.
func IsReserved(name string) bool {
	if _, ok := reservedNames[name]; ok {
		return true
	}

	return strings.HasPrefix(name, reservedPrefix)
}

// SplitExt splits name at its last dot into stem and extension, the
// extension keeping its dot. Leading dots do not start an extension, so
// ".profile" and "..lock" have none.
func SplitExt(name string) (stem, ext string) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return name, ""
	}

	if strings.Trim(name[:dot], ".") == "" {
		return name, ""
	}

	return name[:dot], name[dot:]
}

func stripIllegal(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalChars, r) {
			return -1
		}
		return r
	}, s)
}

func stripNonASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
}

// isTrailingSpace treats the ASCII information separators (0x1c-0x1f) as
// whitespace in addition to the usual set.
func isTrailingSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
