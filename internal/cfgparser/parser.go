package cfgparser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Diagnostic is a single parse/IO/variable-lookup problem, carrying
// enough context to print `source:line: message`.
type Diagnostic struct {
	Source  string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Source == "" {
		return d.Message
	}
	return fmt.Sprintf("%s:%d: %s", d.Source, d.Line, d.Message)
}

// Options configure a CfgParser at construction time.
type Options struct {
	Shell             string
	CommandPath       string
	EarlyEndKey       string
	RegisterXResource bool
	AtomReader        AtomReader
	ResourceReader    ResourceReader
	Diagnostics       func(Diagnostic)
}

// CfgParser tokenises the pekwm configuration grammar into a
// tree of *Entry nodes, expanding variables and honouring
// include/command/define directives as it goes.
type CfgParser struct {
	root        *Entry
	env         *environment
	templates   map[string]*Entry
	sources     []Source
	shell       string
	commandPath string
	earlyEndKey string
	overwrite   bool
	stopAll     bool
	diagnostics func(Diagnostic)
	loaded      *LoadedFiles
}

// New builds a CfgParser ready to Parse one or more sources into a
// single tree.
func New(opts Options) *CfgParser {
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = func(Diagnostic) {}
	}
	return &CfgParser{
		root:        newRoot(),
		env:         newEnvironment(opts.AtomReader, opts.ResourceReader, opts.RegisterXResource),
		templates:   make(map[string]*Entry),
		shell:       opts.Shell,
		commandPath: opts.CommandPath,
		earlyEndKey: opts.EarlyEndKey,
		diagnostics: opts.Diagnostics,
		loaded:      NewLoadedFiles(),
	}
}

// Root returns the synthetic ROOT entry of the parsed tree.
func (p *CfgParser) Root() *Entry { return p.root }

// LoadedFiles returns the tracker recording every file this parser
// has read, directly or via INCLUDE.
func (p *CfgParser) LoadedFiles() *LoadedFiles { return p.loaded }

// SetVar defines a user variable ahead of parsing, equivalent to a
// `$name = "value"` declaration appearing before the source.
func (p *CfgParser) SetVar(name, value string) { p.env.mem.Set(name, value) }

func (p *CfgParser) warn(src Source, line int, format string, args ...interface{}) {
	name := ""
	if src != nil {
		name = src.name()
	}
	p.diagnostics(Diagnostic{Source: name, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (p *CfgParser) innermostSource() Source {
	if len(p.sources) == 0 {
		return nil
	}
	return p.sources[len(p.sources)-1]
}

func (p *CfgParser) innermostDir() string {
	src := p.innermostSource()
	if src == nil {
		return ""
	}
	if fs, ok := src.(*fileSrc); ok {
		return filepath.Dir(fs.path)
	}
	return ""
}

// ParseFile loads a file source and parses it into the root. It is
// the common entry point used by SysConfig.
func (p *CfgParser) ParseFile(path string, overwrite bool) bool {
	return p.Parse(newFileSource(path), overwrite)
}

// ParseString parses an in-memory config, primarily for tests.
func (p *CfgParser) ParseString(name, data string, overwrite bool) bool {
	return p.Parse(newStringSource(name, data), overwrite)
}

// Parse loads src and parses it into the tree rooted at Root(),
// returning true on completion (including early termination via the
// configured early-end key) and false if the initial source could not
// be opened at all.
func (p *CfgParser) Parse(src Source, overwrite bool) bool {
	p.overwrite = overwrite
	p.stopAll = false
	if fs, ok := src.(*fileSrc); ok {
		p.loaded.Track(fs.path)
	}
	if err := src.open(); err != nil {
		p.warn(src, 0, "%s", err)
		return false
	}
	p.sources = append(p.sources, src)
	p.scan(src, p.root)
	src.close()
	p.sources = p.sources[:len(p.sources)-1]
	return true
}

// sectionFrame tracks one level of brace nesting while scanning a
// single source. entry is where new leaf/section children are
// appended (nil inside a dropped section); templateName is non-empty
// while collecting a DEFINE body.
type sectionFrame struct {
	entry        *Entry
	templateName string
}

// scanState accumulates the in-progress name/value pair described by
// (buf, value, have_value).
type scanState struct {
	buf         strings.Builder
	quotedName  *string
	afterEquals bool
	value       string
	haveValue   bool
	lineStart   int
}

func (s *scanState) empty() bool {
	return s.buf.Len() == 0 && s.quotedName == nil && !s.afterEquals && !s.haveValue
}

func (s *scanState) resolvedName() string {
	if s.quotedName != nil {
		return *s.quotedName
	}
	fields := strings.Fields(s.buf.String())
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// scan drives the character-at-a-time state machine over src,
// appending parsed entries under section. It returns once src hits
// EOF or the early-end marker fires.
func (p *CfgParser) scan(src Source, section *Entry) {
	var (
		st    scanState
		stack = []sectionFrame{{entry: section}}
	)
	st.lineStart = src.line()

	finalize := func() {
		if !st.empty() {
			p.finalizeEntry(src, &st, &stack)
		}
		st = scanState{lineStart: src.line()}
	}

	for {
		if p.stopAll {
			return
		}
		c := src.getChar()
		if c == EOF {
			finalize()
			if len(stack) > 1 {
				p.warn(src, src.line(), "unexpected end of file, %d unclosed section(s)", len(stack)-1)
			}
			return
		}
		switch byte(c) {
		case '\\':
			next := src.getChar()
			if next != EOF {
				st.buf.WriteByte('\\')
				st.buf.WriteByte(byte(next))
			}
		case '#':
			p.consumeLineComment(src)
		case '/':
			if !p.maybeConsumeSlashComment(src, &st) {
				st.buf.WriteByte('/')
			}
		case '"':
			if !st.afterEquals {
				name, ok := p.readQuotedName(src)
				if !ok {
					continue
				}
				st.quotedName = &name
			} else {
				value, ok := p.readQuotedValue(src)
				if !ok {
					continue
				}
				st.value = value
				st.haveValue = true
			}
		case '=':
			if !st.afterEquals {
				st.afterEquals = true
			} else {
				st.buf.WriteByte('=')
			}
		case '{':
			p.startSection(src, &st, &stack)
			st = scanState{lineStart: src.line()}
		case '}':
			finalize()
			if p.endSection(src, &stack) {
				p.stopAll = true
				return
			}
		case ';':
			finalize()
		case '\n':
			next := p.peekAfterBlanks(src)
			if next == '{' {
				continue
			}
			finalize()
		default:
			st.buf.WriteByte(byte(c))
		}
	}
}

// peekAfterBlanks discards horizontal whitespace and returns the next
// interesting byte (ungetting it so the caller's own loop re-reads
// it), or EOF.
func (p *CfgParser) peekAfterBlanks(src Source) int {
	for {
		c := src.getChar()
		switch c {
		case int(' '), int('\t'), int('\r'):
			continue
		case EOF:
			return EOF
		default:
			src.ungetChar(byte(c))
			return c
		}
	}
}

// consumeLineComment discards bytes up to (not including) the
// terminating newline, which is left for the main loop to observe so
// value-finalisation still fires.
func (p *CfgParser) consumeLineComment(src Source) {
	for {
		c := src.getChar()
		if c == EOF {
			return
		}
		if c == '\n' {
			src.ungetChar('\n')
			return
		}
	}
}

// maybeConsumeSlashComment handles `//` and `/* ... */`. It returns
// false (having consumed nothing further) when the '/' was not the
// start of a comment, so the caller appends it as ordinary text.
func (p *CfgParser) maybeConsumeSlashComment(src Source, st *scanState) bool {
	next := src.getChar()
	switch next {
	case '/':
		p.consumeLineComment(src)
		return true
	case '*':
		p.consumeBlockComment(src)
		return true
	case EOF:
		return false
	default:
		src.ungetChar(byte(next))
		return false
	}
}

func (p *CfgParser) consumeBlockComment(src Source) {
	var prev byte
	for {
		c := src.getChar()
		if c == EOF {
			p.warn(src, src.line(), "unterminated /* comment")
			return
		}
		if prev == '*' && c == '/' {
			return
		}
		prev = byte(c)
	}
}

// readQuotedName parses a `"..."` name, supporting \" and \\ escapes.
func (p *CfgParser) readQuotedName(src Source) (string, bool) {
	var b strings.Builder
	for {
		c := src.getChar()
		if c == EOF {
			p.warn(src, src.line(), "unterminated quoted name")
			return "", false
		}
		if c == '\\' {
			next := src.getChar()
			switch next {
			case '"', '\\':
				b.WriteByte(byte(next))
			case EOF:
				p.warn(src, src.line(), "unterminated quoted name")
				return "", false
			default:
				b.WriteByte(byte(next))
			}
			continue
		}
		if c == '"' {
			return b.String(), true
		}
		b.WriteByte(byte(c))
	}
}

// readQuotedValue parses a `"..."` value: \\, \", \<newline>
// (consumed), \<other> (kept, backslash dropped).
func (p *CfgParser) readQuotedValue(src Source) (string, bool) {
	var b strings.Builder
	for {
		c := src.getChar()
		if c == EOF {
			p.warn(src, src.line(), "unterminated string, missing closing \"")
			return "", false
		}
		if c == '\\' {
			next := src.getChar()
			switch next {
			case EOF:
				p.warn(src, src.line(), "unterminated string, missing closing \"")
				return "", false
			case '\n':
				// escaped newline: consumed, nothing emitted.
			default:
				b.WriteByte(byte(next))
			}
			continue
		}
		if c == '"' {
			return b.String(), true
		}
		b.WriteByte(byte(c))
	}
}

// startSection handles `name = "value" {` / `name {`, pushing a new
// section frame (or a template-collection frame for `Define = "n" {`).
func (p *CfgParser) startSection(src Source, st *scanState, stack *[]sectionFrame) {
	name := st.resolvedName()
	if name == "" {
		p.warn(src, st.lineStart, "empty name before '{', section dropped")
		*stack = append(*stack, sectionFrame{entry: nil})
		return
	}
	label := st.value
	expandedLabel, diags := p.env.Expand(label)
	p.logDiagnostics(src, st.lineStart, diags)
	label = expandedLabel

	top := (*stack)[len(*stack)-1]
	if top.templateName != "" || top.entry == nil {
		// Nested braces inside a dropped/define frame: track depth but
		// discard content; DEFINE bodies are flat config entries in
		// practice, so this only guards against malformed input.
		*stack = append(*stack, sectionFrame{entry: nil})
		return
	}

	if strings.EqualFold(name, "Define") {
		*stack = append(*stack, sectionFrame{entry: &Entry{Name: name, Value: label}, templateName: label})
		return
	}

	child := p.appendOrMergeSection(top.entry, name, label, src, st.lineStart)
	*stack = append(*stack, sectionFrame{entry: child})
}

// appendOrMergeSection implements the overwrite contract for
// section-valued children: a new section is appended unless
// overwrite is set and an existing same-named section's label matches
// case-insensitively, in which case parsing continues into the
// existing section so its children are merged.
func (p *CfgParser) appendOrMergeSection(parent *Entry, name, label string, src Source, line int) *Entry {
	if p.overwrite {
		if existing := parent.Find(name); existing != nil && existing.IsSection() &&
			nameEqual(existing.Value, label) {
			return existing
		}
	}
	child := &Entry{
		Name:       name,
		Value:      label,
		SourceName: src.name(),
		Line:       line,
	}
	child.makeSection()
	parent.appendChild(child)
	return child
}

// endSection pops one section frame, storing its content as a
// template if it was a DEFINE body, and returns whether the early-end
// marker fired.
func (p *CfgParser) endSection(src Source, stack *[]sectionFrame) (stopAll bool) {
	if len(*stack) <= 1 {
		p.warn(src, src.line(), "unexpected '}'")
		return false
	}
	top := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]

	if top.templateName != "" {
		p.templates[strings.ToLower(top.templateName)] = top.entry
		return false
	}
	if top.entry == nil {
		return false
	}
	if p.earlyEndKey != "" && nameEqual(top.entry.Name, p.earlyEndKey) {
		return true
	}
	return false
}

// finalizeEntry dispatches a completed name[/value] pair: variable
// declarations, INCLUDE/COMMAND directives, template expansion, or a
// plain leaf entry.
func (p *CfgParser) finalizeEntry(src Source, st *scanState, stack *[]sectionFrame) {
	name := st.resolvedName()
	if name == "" {
		if st.haveValue || st.afterEquals {
			p.warn(src, st.lineStart, "empty name, entry dropped")
		}
		return
	}
	top := (*stack)[len(*stack)-1]
	if top.entry == nil {
		return // inside a dropped/define frame.
	}

	switch {
	case strings.HasPrefix(name, "$"):
		p.finalizeVarDecl(src, st, name)
	case strings.EqualFold(name, "INCLUDE"):
		p.finalizeInclude(src, st, top.entry)
	case strings.EqualFold(name, "COMMAND"):
		p.finalizeCommand(src, st, top.entry)
	case strings.HasPrefix(name, "@"):
		p.expandTemplate(src, name[1:], top.entry)
	default:
		value, diags := p.env.Expand(st.value)
		p.logDiagnostics(src, st.lineStart, diags)
		p.appendLeaf(top.entry, name, value, src, st.lineStart)
	}
}

func (p *CfgParser) finalizeVarDecl(src Source, st *scanState, name string) {
	if !st.haveValue {
		p.warn(src, st.lineStart, "variable %q declared without a value", name)
		return
	}
	varName := name[1:]
	if varName == "" {
		p.warn(src, st.lineStart, "empty variable name")
		return
	}
	value, diags := p.env.Expand(st.value)
	p.logDiagnostics(src, st.lineStart, diags)
	p.env.mem.Set(varName, value)
	if strings.HasPrefix(varName, "_") {
		os.Setenv(strings.TrimPrefix(varName, "_"), value)
	}
}

func (p *CfgParser) appendLeaf(parent *Entry, name, value string, src Source, line int) {
	if p.overwrite {
		if existing := parent.Find(name); existing != nil && !existing.IsSection() {
			existing.overwriteLeaf(value)
			return
		}
	}
	parent.appendChild(&Entry{
		Name:       name,
		Value:      value,
		SourceName: src.name(),
		Line:       line,
	})
}

func (p *CfgParser) finalizeInclude(src Source, st *scanState, section *Entry) {
	if !st.haveValue {
		p.warn(src, st.lineStart, "INCLUDE without a path")
		return
	}
	path, diags := p.env.Expand(st.value)
	p.logDiagnostics(src, st.lineStart, diags)

	inner := newFileSource(path)
	if err := inner.open(); err != nil {
		if !filepath.IsAbs(path) {
			if dir := p.innermostDir(); dir != "" {
				fallback := newFileSource(filepath.Join(dir, path))
				if fErr := fallback.open(); fErr == nil {
					inner = fallback
					err = nil
				}
			}
		}
		if err != nil {
			p.warn(src, st.lineStart, "could not open include %q", path)
			return
		}
	}
	p.loaded.Track(inner.path)
	p.sources = append(p.sources, inner)
	p.scan(inner, section)
	inner.close()
	p.sources = p.sources[:len(p.sources)-1]
}

func (p *CfgParser) finalizeCommand(src Source, st *scanState, section *Entry) {
	if !st.haveValue {
		p.warn(src, st.lineStart, "COMMAND without a command string")
		return
	}
	command, diags := p.env.Expand(st.value)
	p.logDiagnostics(src, st.lineStart, diags)

	inner := newCommandSource(p.shell, command, p.commandPath)
	if err := inner.open(); err != nil {
		p.warn(src, st.lineStart, "command failed: %s", err)
		return
	}
	p.sources = append(p.sources, inner)
	p.scan(inner, section)
	if err := inner.close(); err != nil {
		p.warn(src, st.lineStart, "%s", err)
	}
	p.sources = p.sources[:len(p.sources)-1]
}

func (p *CfgParser) expandTemplate(src Source, name string, section *Entry) {
	tmpl, ok := p.templates[strings.ToLower(name)]
	if !ok {
		p.warn(src, src.line(), "template %q is not defined", name)
		return
	}
	for _, child := range tmpl.Children {
		section.appendChild(copyTree(child))
	}
}

func (p *CfgParser) logDiagnostics(src Source, line int, diags []string) {
	for _, d := range diags {
		p.warn(src, line, "%s", d)
	}
}
