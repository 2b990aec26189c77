package softgl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// decl is one top-level in/out/uniform declaration.
type decl struct {
	qualifier string // "in", "out" or "uniform"
	typ       string
	name      string
	location  int // explicit layout location, -1 if none
	line      int
}

// unit is the reflected form of a shader source.
type unit struct {
	version int
	decls   []decl
	body    string // comment-stripped source
}

var (
	declRe = regexp.MustCompile(`^(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?(in|attribute|out|varying|uniform)\s+(?:(?:lowp|mediump|highp|flat|smooth)\s+)*(\w+)\s+(\w+)\s*(?:\[\s*\d*\s*\])?\s*;`)
	mainRe    = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(?:void\s*)?\)`)
	versionRe = regexp.MustCompile(`^#version\s+(\d+)(?:\s+(core|es|compatibility))?\s*$`)
)

// supportedVersions are the GLSL versions the reflector accepts.
var supportedVersions = map[int]bool{100: true, 300: true, 330: true, 400: true, 410: true, 420: true, 430: true, 450: true}

// compileError is one diagnostic in GL info-log form.
type compileError struct {
	line int
	msg  string
}

func (e compileError) String() string {
	return fmt.Sprintf("0:%d(0): error: %s", e.line, e.msg)
}

// stripComments removes // and /* */ comments, keeping line breaks so line
// numbers stay aligned with the original source.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				sb.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			i += 2
			for i < len(src) && !strings.HasPrefix(src[i:], "*/") {
				if src[i] == '\n' {
					sb.WriteByte('\n')
				}
				i++
			}
			i++ // skip '/'
		default:
			sb.WriteByte(src[i])
		}
	}
	return sb.String()
}

// reflectSource checks a shader for structural errors and collects its
// top-level declarations. It is not a GLSL compiler: it catches unbalanced
// delimiters, missing statement terminators, a missing main and bad version
// directives, which covers the failures a fixed shader pair can have.
func reflectSource(src string) (*unit, []compileError) {
	body := stripComments(src)
	lines := strings.Split(body, "\n")
	u := &unit{body: body}
	var errs []compileError

	depth := 0
	sawCode := false
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if m := versionRe.FindStringSubmatch(line); m != nil {
				if sawCode {
					errs = append(errs, compileError{lineNo, "#version must occur before any other statement"})
				}
				v, _ := strconv.Atoi(m[1])
				if !supportedVersions[v] {
					errs = append(errs, compileError{lineNo, fmt.Sprintf("version %d is not supported", v)})
				}
				u.version = v
			} else if strings.HasPrefix(line, "#version") {
				errs = append(errs, compileError{lineNo, "malformed #version directive"})
			}
			continue
		}
		sawCode = true

		if depth == 0 {
			if m := declRe.FindStringSubmatch(line); m != nil {
				d := decl{qualifier: normalizeQualifier(m[2]), typ: m[3], name: m[4], location: -1, line: lineNo}
				if m[1] != "" {
					d.location, _ = strconv.Atoi(m[1])
				}
				u.decls = append(u.decls, d)
			}
		}

		for _, r := range line {
			switch r {
			case '{':
				depth++
			case '}':
				depth--
				if depth < 0 {
					errs = append(errs, compileError{lineNo, "syntax error, unexpected '}'"})
					depth = 0
				}
			}
		}

		if msg := terminatorError(line, nextCodeLine(lines, i)); msg != "" {
			errs = append(errs, compileError{lineNo, msg})
		}
	}

	if depth > 0 {
		errs = append(errs, compileError{len(lines), "syntax error, unexpected end of file, expecting '}'"})
	}
	if !balanced(body, '(', ')') {
		errs = append(errs, compileError{len(lines), "syntax error, unbalanced parentheses"})
	}
	if !balanced(body, '[', ']') {
		errs = append(errs, compileError{len(lines), "syntax error, unbalanced brackets"})
	}
	if !mainRe.MatchString(body) {
		errs = append(errs, compileError{len(lines), "no function with name 'main'"})
	}
	return u, errs
}

func normalizeQualifier(q string) string {
	switch q {
	case "attribute":
		return "in"
	case "varying":
		return "inout" // resolved per stage by the linker
	default:
		return q
	}
}

func balanced(s string, open, close byte) bool {
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			n++
		case close:
			n--
			if n < 0 {
				return false
			}
		}
	}
	return n == 0
}

// nextCodeLine returns the next non-empty, non-directive line after i.
func nextCodeLine(lines []string, i int) string {
	for j := i + 1; j < len(lines); j++ {
		l := strings.TrimSpace(lines[j])
		if l != "" && !strings.HasPrefix(l, "#") {
			return l
		}
	}
	return ""
}

// terminatorError flags a statement that ends without ';' and runs straight
// into the next statement.
func terminatorError(line, next string) string {
	for _, kw := range []string{"if", "else", "for", "while"} {
		if line == kw || strings.HasPrefix(line, kw+" ") || strings.HasPrefix(line, kw+"(") {
			return ""
		}
	}
	last := line[len(line)-1]
	if !isWordByte(last) && last != ')' && last != ']' {
		return ""
	}
	if next == "" {
		return "syntax error, unexpected end of file, expecting ';'"
	}
	if isWordByte(next[0]) {
		return fmt.Sprintf("syntax error, unexpected IDENTIFIER %q, expecting ',' or ';'", firstWord(next))
	}
	return ""
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func firstWord(s string) string {
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return s[:i]
		}
	}
	return s
}

// referenced reports whether name is used outside its declarations.
func (u *unit) referenced(name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	uses := len(re.FindAllStringIndex(u.body, -1))
	for _, d := range u.decls {
		if d.name == name {
			uses--
		}
	}
	return uses > 0
}

// inputs returns the stage inputs; varyings count as inputs in fragment stages.
func (u *unit) inputs(fragment bool) []decl {
	var out []decl
	for _, d := range u.decls {
		if d.qualifier == "in" || fragment && d.qualifier == "inout" {
			out = append(out, d)
		}
	}
	return out
}

// outputs returns the stage outputs; varyings count as outputs in vertex stages.
func (u *unit) outputs(vertex bool) []decl {
	var out []decl
	for _, d := range u.decls {
		if d.qualifier == "out" || vertex && d.qualifier == "inout" {
			out = append(out, d)
		}
	}
	return out
}

func (u *unit) uniforms() []decl {
	var out []decl
	for _, d := range u.decls {
		if d.qualifier == "uniform" {
			out = append(out, d)
		}
	}
	return out
}
