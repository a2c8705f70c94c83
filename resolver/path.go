package resolver

import "strings"

// Explode splits a path on '/'. Empty components are kept except a
// trailing one, so "a//b/" yields ["a", "", "b"].
func Explode(path string) []string {
	var parts []string
	start := 0
	for start < len(path) {
		end := strings.IndexByte(path[start:], '/')
		if end < 0 {
			parts = append(parts, path[start:])
			break
		}
		parts = append(parts, path[start:start+end])
		start += end + 1
	}
	return parts
}

// Implode joins components with '/'.
func Implode(parts []string) string {
	return strings.Join(parts, "/")
}

// Parent drops the last component in place and returns the result.
//
// Dropping from an empty path, or from a path already made of "..",
// appends ".." instead. Dropping a lone "." leaves "..".
func Parent(parts []string) []string {
	n := len(parts)
	if n == 0 || parts[n-1] == ".." {
		return append(parts, "..")
	}
	wasDot := parts[n-1] == "."
	parts = parts[:n-1]
	if wasDot && len(parts) == 0 {
		parts = append(parts, "..")
	}
	return parts
}

// Simplify resolves "." and ".." components. A leading "." is kept so the
// result stays relative; leading ".." components that cannot be resolved
// are kept too.
//
// An empty path simplifies to ".".
func Simplify(parts []string) []string {
	if len(parts) == 0 {
		return []string{"."}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch {
		case p == "." && len(out) == 0:
			out = append(out, p)
		case p == ".":
		case p == "..":
			out = Parent(out)
		default:
			out = append(out, p)
		}
	}
	return out
}

// Join appends rest to base, both simplified first. Empty and "."
// components of rest are skipped.
func Join(base, rest []string) []string {
	out := Simplify(base)
	for _, p := range Simplify(rest) {
		switch p {
		case "", ".":
		case "..":
			out = Parent(out)
		default:
			out = append(out, p)
		}
	}
	return out
}

// Merge resolves required relative to the directory of from.
//
//	Merge("./a/c", "./b")  == "./a/b"
//	Merge("./a/b", "..")   == "."
//	Merge("./a", "../../x") == "../../x"
func Merge(from, required string) string {
	return Implode(Join(Parent(Explode(from)), Explode(required)))
}

// Rebase resolves path against the package root.
func Rebase(path string) string {
	return Implode(Join([]string{"."}, Explode(path)))
}

// RPartition splits s at the last sep. If sep is absent the head is empty
// and the tail is s.
func RPartition(s string, sep byte) (head, tail string) {
	i := strings.LastIndexByte(s, sep)
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}

// IsModulePathLike reports whether s contains only bytes allowed in a
// specifier: ASCII letters, digits and any of ./:-_
func IsModulePathLike(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '/', c == ':', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
