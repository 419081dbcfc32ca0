package manager

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mineguard/warden/pkg/policy/engine"
	"mineguard/warden/pkg/rulelang/ast"
	rlErrors "mineguard/warden/pkg/rulelang/errors"
	"mineguard/warden/pkg/rulelang/parser"
)

// groupsFileName is the reusable group definition file inside the rules
// directory.
const groupsFileName = "groups.rs"

// Loader compiles the rule and message directories into one snapshot. A load
// is all-or-nothing: any syntax, pattern or semantic error anywhere rejects
// the whole pass and the caller keeps its previous snapshot.
type Loader struct {
	parser       *parser.Parser
	matchTimeout time.Duration
	logger       *slog.Logger

	// enabledMessages limits which message files are read; nil means all.
	enabledMessages map[ast.MessageType]bool
}

// NewLoader creates a loader with the given regex match timeout.
func NewLoader(matchTimeout time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		parser:       parser.NewParser(),
		matchTimeout: matchTimeout,
		logger:       logger,
	}
}

// WithEnabledMessages restricts message loading to the listed types.
func (l *Loader) WithEnabledMessages(types []ast.MessageType) *Loader {
	l.enabledMessages = make(map[ast.MessageType]bool, len(types))
	for _, t := range types {
		l.enabledMessages[t] = true
	}
	return l
}

// Load reads rulesDir and messagesDir and compiles a snapshot. Missing files
// are fine (a server may only ship chat.rs); broken ones are not.
func (l *Loader) Load(rulesDir, messagesDir string) (*engine.Snapshot, error) {
	var errs rlErrors.List

	registry := l.loadGroups(rulesDir, &errs)

	// Every rule file is parsed once; @import splices a file's rules ahead of
	// the importer's own, so shared files like global.rs compile one time and
	// appear in several streams.
	cache := newFileCache(l, rulesDir)

	snapshot := &engine.Snapshot{
		Rules:    make(map[ast.RuleType][]*engine.CompiledRule),
		Messages: make(map[ast.MessageType][]*engine.CompiledMessageGroup),
		LoadedAt: time.Now(),
	}

	for _, typ := range ast.RuleTypes() {
		if typ == ast.RuleGlobal {
			continue // global.rs only exists to be imported
		}
		rules := cache.resolve(string(typ), &errs)
		snapshot.Rules[typ] = l.compileRules(rules, registry, &errs)
	}

	for _, typ := range ast.MessageTypes() {
		if l.enabledMessages != nil && !l.enabledMessages[typ] {
			continue
		}
		path := filepath.Join(messagesDir, string(typ)+".rs")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		file, err := l.parser.ParseMessages(path, typ)
		if err != nil {
			collect(&errs, err)
			continue
		}
		snapshot.Messages[typ] = l.compileMessageGroups(file.MessageGroups, &errs)
	}

	if errs.HasErrors() {
		return nil, fmt.Errorf("rule load failed: %w", errs.ToError())
	}

	l.logger.Info("rules loaded",
		"rule_files", len(snapshot.Rules),
		"rules", countRules(snapshot),
		"message_groups", countGroups(snapshot),
	)
	return snapshot, nil
}

func (l *Loader) loadGroups(rulesDir string, errs *rlErrors.List) *Registry {
	registry := NewRegistry()

	path := filepath.Join(rulesDir, groupsFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return registry
	}

	file, err := l.parser.ParseGroups(path)
	if err != nil {
		collect(errs, err)
		return registry
	}
	for _, group := range file.Groups {
		if derr := registry.Define(group); derr != nil {
			errs.Add(derr)
		}
	}
	return registry
}

func (l *Loader) compileRules(rules []ast.Rule, registry *Registry, errs *rlErrors.List) []*engine.CompiledRule {
	compiled := make([]*engine.CompiledRule, 0, len(rules))
	for _, rule := range rules {
		var group *ast.Group
		if rule.Group != "" {
			resolved, rerr := registry.Resolve(rule.Group, rule.File, rule.Line)
			if rerr != nil {
				errs.Add(rerr)
				continue
			}
			group = resolved
		}

		cr, cerr := engine.CompileRule(rule, group, l.matchTimeout)
		if cerr != nil {
			errs.Add(cerr)
			continue
		}
		compiled = append(compiled, cr)
	}
	return compiled
}

func (l *Loader) compileMessageGroups(groups []ast.MessageGroup, errs *rlErrors.List) []*engine.CompiledMessageGroup {
	compiled := make([]*engine.CompiledMessageGroup, 0, len(groups))
	seen := make(map[string]int)

	for _, group := range groups {
		if line, dup := seen[group.Name]; dup {
			errs.Add(rlErrors.Semanticf(group.File, group.Line,
				"message group %q already defined at line %d", group.Name, line))
			continue
		}
		seen[group.Name] = group.Line

		cg, cerr := engine.CompileMessageGroup(group, l.matchTimeout)
		if cerr != nil {
			errs.Add(cerr)
			continue
		}
		compiled = append(compiled, cg)
	}
	return compiled
}

// fileCache parses each rule file at most once and resolves imports
// recursively, rejecting cycles.
type fileCache struct {
	loader   *Loader
	rulesDir string

	resolved map[string][]ast.Rule
	visiting map[string]bool
}

func newFileCache(l *Loader, rulesDir string) *fileCache {
	return &fileCache{
		loader:   l,
		rulesDir: rulesDir,
		resolved: make(map[string][]ast.Rule),
		visiting: make(map[string]bool),
	}
}

// resolve returns the file's effective rule list: every import's rules (in
// import order) followed by the file's own.
func (c *fileCache) resolve(name string, errs *rlErrors.List) []ast.Rule {
	if rules, ok := c.resolved[name]; ok {
		return rules
	}
	if c.visiting[name] {
		errs.Add(rlErrors.Semanticf(name+".rs", 0, "import cycle through %q", name))
		return nil
	}

	path := filepath.Join(c.rulesDir, name+".rs")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.resolved[name] = nil
		return nil
	}

	file, err := c.loader.parser.ParseRules(path, ruleTypeFor(name))
	if err != nil {
		collect(errs, err)
		c.resolved[name] = nil
		return nil
	}

	c.visiting[name] = true
	var rules []ast.Rule
	for _, imported := range file.Imports {
		rules = append(rules, c.resolve(imported, errs)...)
	}
	c.visiting[name] = false

	rules = append(rules, file.Rules...)
	c.resolved[name] = rules
	return rules
}

// ruleTypeFor maps a file name to the type its rules carry. Imported helper
// files like global.rs stay global so their `ignore type` filters work in
// every stream they are spliced into.
func ruleTypeFor(name string) ast.RuleType {
	switch ast.RuleType(name) {
	case ast.RuleChat, ast.RuleCommand, ast.RuleSign, ast.RuleTag:
		return ast.RuleType(name)
	default:
		return ast.RuleGlobal
	}
}

func collect(errs *rlErrors.List, err error) {
	switch typed := err.(type) {
	case *rlErrors.Error:
		errs.Add(typed)
	case *rlErrors.List:
		for _, e := range typed.Errors {
			errs.Add(e)
		}
	default:
		errs.Add(&rlErrors.Error{Type: rlErrors.ErrorTypeIO, Message: err.Error()})
	}
}

func countRules(s *engine.Snapshot) int {
	n := 0
	for _, rules := range s.Rules {
		n += len(rules)
	}
	return n
}

func countGroups(s *engine.Snapshot) int {
	n := 0
	for _, groups := range s.Messages {
		n += len(groups)
	}
	return n
}
