// Package parser reads the line-oriented rule file format into the AST.
//
// Rule files are plain text: `#` starts a comment, blank lines separate
// declarations, and every directive starts at column 0. Text rule files open
// declarations with `match <regex>`, group and message files with
// `group <name>`. A `message:` block collects `- <line>` entries.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mineguard/warden/pkg/rulelang/ast"
	rlErrors "mineguard/warden/pkg/rulelang/errors"
)

// expiresLayouts are accepted by the `expires` and `begins` directives,
// e.g. "31 Dec 2024, 15:00".
var expiresLayouts = []string{
	"2 Jan 2006, 15:04",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// Parser parses rule, group and message files.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a parser with default limits.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 1024 * 1024, // 1MB; rule files are hand-written
	}
}

// WithMaxFileSize sets the maximum file size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// ParseRules parses a text-event rule file (chat.rs, command.rs, ...).
func (p *Parser) ParseRules(path string, typ ast.RuleType) (*ast.RuleFile, error) {
	src, err := p.readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseRulesSource(src, path, typ)
}

// ParseGroups parses a reusable group definition file (groups.rs).
func (p *Parser) ParseGroups(path string) (*ast.RuleFile, error) {
	src, err := p.readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseGroupsSource(src, path)
}

// ParseMessages parses a structural message file (death.rs, join.rs, ...).
func (p *Parser) ParseMessages(path string, typ ast.MessageType) (*ast.RuleFile, error) {
	src, err := p.readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseMessagesSource(src, path, typ)
}

func (p *Parser) readFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &rlErrors.Error{Type: rlErrors.ErrorTypeIO, File: path, Message: fmt.Sprintf("failed to access file: %v", err)}
	}
	if info.Size() > p.maxFileSize {
		return "", &rlErrors.Error{Type: rlErrors.ErrorTypeIO, File: path, Message: fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &rlErrors.Error{Type: rlErrors.ErrorTypeIO, File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}
	return string(data), nil
}

// ParseRulesSource parses rule declarations from source text.
func (p *Parser) ParseRulesSource(src, path string, typ ast.RuleType) (*ast.RuleFile, error) {
	b := &builder{file: &ast.RuleFile{Path: path}, path: path, ruleType: typ, mode: modeRules}
	return b.run(src)
}

// ParseGroupsSource parses group definitions from source text.
func (p *Parser) ParseGroupsSource(src, path string) (*ast.RuleFile, error) {
	b := &builder{file: &ast.RuleFile{Path: path}, path: path, mode: modeGroups}
	return b.run(src)
}

// ParseMessagesSource parses message group declarations from source text.
func (p *Parser) ParseMessagesSource(src, path string, typ ast.MessageType) (*ast.RuleFile, error) {
	b := &builder{file: &ast.RuleFile{Path: path}, path: path, messageType: typ, mode: modeMessages}
	return b.run(src)
}

type parseMode int

const (
	modeRules parseMode = iota
	modeGroups
	modeMessages
)

// builder walks a file line by line, accumulating declarations. It keeps a
// pointer to the declaration currently being filled.
type builder struct {
	file        *ast.RuleFile
	path        string
	ruleType    ast.RuleType
	messageType ast.MessageType
	mode        parseMode

	errs rlErrors.List

	rule       *ast.Rule
	group      *ast.Group
	msgGroup   *ast.MessageGroup
	inMessages bool
}

func (b *builder) run(src string) (*ast.RuleFile, error) {
	scanner := bufio.NewScanner(strings.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")

		if line == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		b.parseLine(strings.TrimSpace(line), lineNum)
	}

	b.flush()

	if err := b.errs.ToError(); err != nil {
		return nil, err
	}
	return b.file, nil
}

// flush commits the in-progress declaration to the file.
func (b *builder) flush() {
	if b.rule != nil {
		b.file.Rules = append(b.file.Rules, *b.rule)
		b.rule = nil
	}
	if b.group != nil {
		b.file.Groups = append(b.file.Groups, *b.group)
		b.group = nil
	}
	if b.msgGroup != nil {
		b.file.MessageGroups = append(b.file.MessageGroups, *b.msgGroup)
		b.msgGroup = nil
	}
	b.inMessages = false
}

func (b *builder) errorf(line int, format string, args ...any) {
	b.errs.Add(rlErrors.Syntaxf(b.path, line, format, args...))
}

func (b *builder) parseLine(line string, lineNum int) {
	// Message block entries.
	if b.inMessages {
		if strings.HasPrefix(line, "- ") {
			b.msgGroup.Messages = append(b.msgGroup.Messages, strings.TrimSpace(line[2:]))
			return
		}
		if line == "-" {
			b.msgGroup.Messages = append(b.msgGroup.Messages, "")
			return
		}
		b.inMessages = false
	}

	args := strings.Fields(line)
	first := args[0]
	rest := strings.TrimSpace(strings.TrimPrefix(line, first))

	switch {
	case first == "@import":
		if b.mode != modeRules {
			b.errorf(lineNum, "@import is only valid in rule files")
			return
		}
		if rest == "" {
			b.errorf(lineNum, "@import requires a file name")
			return
		}
		b.file.Imports = append(b.file.Imports, rest)
		return

	case first == "match":
		if b.mode != modeRules {
			b.errorf(lineNum, "'match' is only valid in rule files")
			return
		}
		if rest == "" {
			b.errorf(lineNum, "'match' requires a regular expression")
			return
		}
		b.flush()
		b.rule = &ast.Rule{Type: b.ruleType, Match: rest, File: b.path, Line: lineNum}
		return

	case first == "group" && b.mode != modeRules:
		if rest == "" {
			b.errorf(lineNum, "'group' requires a name")
			return
		}
		b.flush()
		if b.mode == modeGroups {
			b.group = &ast.Group{Name: rest, File: b.path, Line: lineNum}
		} else {
			b.msgGroup = &ast.MessageGroup{Type: b.messageType, Name: rest, File: b.path, Line: lineNum}
		}
		return
	}

	if b.rule == nil && b.group == nil && b.msgGroup == nil {
		b.errorf(lineNum, "directive %q before any declaration", first)
		return
	}

	b.parseDirective(line, args, lineNum)
}

// parseDirective handles every directive below a declaration header.
func (b *builder) parseDirective(line string, args []string, lineNum int) {
	first := args[0]
	firstTwo := joinRange(args, 0, 2)
	rest := rangeRest(args, 1)
	restTwo := rangeRest(args, 2)

	switch {
	case first == "name":
		b.withRule(lineNum, "name", func(r *ast.Rule) { r.Name = rest })

	case first == "group":
		b.withRule(lineNum, "group", func(r *ast.Rule) {
			if r.Group != "" {
				b.errorf(lineNum, "'group' already set to %q", r.Group)
				return
			}
			r.Group = rest
		})

	case firstTwo == "strip colors":
		b.withRule(lineNum, "strip colors", func(r *ast.Rule) { r.StripColors = parseOptionalBool(restTwo) })

	case firstTwo == "strip accents":
		b.withRule(lineNum, "strip accents", func(r *ast.Rule) { r.StripAccents = parseOptionalBool(restTwo) })

	case firstTwo == "ignore type" || firstTwo == "ignore types" || firstTwo == "ignore event" || firstTwo == "ignore events":
		b.withRule(lineNum, firstTwo, func(r *ast.Rule) {
			if r.Type != ast.RuleGlobal {
				b.errorf(lineNum, "'ignore type' is only valid on global rules")
				return
			}
			for _, key := range splitVertically(restTwo) {
				r.IgnoreTypes = append(r.IgnoreTypes, ast.RuleType(key))
			}
		})

	case firstTwo == "before replace":
		b.withRule(lineNum, "before replace", func(r *ast.Rule) {
			parts := strings.SplitN(restTwo, " with ", 2)
			pair := ast.ReplacePair{Pattern: parts[0]}
			if len(parts) == 2 {
				pair.Replacement = parts[1]
			}
			r.BeforeReplace = append(r.BeforeReplace, pair)
		})

	case first == "delay":
		throttle, err := parseThrottle(rest)
		if err != nil {
			b.errorf(lineNum, "invalid 'delay': %v; valid: <amount> <unit> [message], e.g. 'delay 2 minutes'", err)
			return
		}
		b.setDelay(lineNum, throttle, false)

	case firstTwo == "player delay":
		throttle, err := parseThrottle(restTwo)
		if err != nil {
			b.errorf(lineNum, "invalid 'player delay': %v", err)
			return
		}
		b.setDelay(lineNum, throttle, true)

	case first == "expires":
		t, err := parseDate(rest)
		if err != nil {
			b.errorf(lineNum, "invalid 'expires' date %q; valid: '31 Dec 2024, 15:00'", rest)
			return
		}
		b.setExpires(lineNum, t)

	case first == "begins":
		t, err := parseDate(rest)
		if err != nil {
			b.errorf(lineNum, "invalid 'begins' date %q; valid: '31 Dec 2024, 15:00'", rest)
			return
		}
		b.withRule(lineNum, "begins", func(r *ast.Rule) { r.Begins = &t })

	case first == "prefix":
		b.withMessageGroup(lineNum, "prefix", func(g *ast.MessageGroup) { g.Prefix = rest })

	case first == "suffix":
		b.withMessageGroup(lineNum, "suffix", func(g *ast.MessageGroup) { g.Suffix = rest })

	case first == "proxy" || first == "bungee":
		b.withMessageGroup(lineNum, first, func(g *ast.MessageGroup) { g.Proxy = true })

	case first == "random":
		b.withMessageGroup(lineNum, "random", func(g *ast.MessageGroup) { g.Random = true })

	case first == "message:" || first == "messages:":
		if b.msgGroup == nil {
			b.errorf(lineNum, "'message:' is only valid in message groups")
			return
		}
		b.inMessages = true

	case firstTwo == "dont log":
		b.setFlag(func(f *flags) { f.log = true })

	case firstTwo == "dont spy":
		b.setFlag(func(f *flags) { f.spy = true })

	case firstTwo == "dont verbose":
		b.setFlag(func(f *flags) { f.verbose = true })

	case firstTwo == "ignore commandprefix":
		b.setCommandPrefixFlag(restTwo)

	case first == "require" || first == "ignore":
		mode := ast.ModeRequire
		if first == "ignore" {
			mode = ast.ModeIgnore
		}
		cond, perr := parseCondition(mode, args[1:], b.path, lineNum)
		if perr != nil {
			b.errs.Add(perr)
			return
		}
		b.addCondition(lineNum, *cond)

	case firstTwo == "save key":
		op, perr := parseSaveKey(restTwo, b.path, lineNum)
		if perr != nil {
			b.errs.Add(perr)
			return
		}
		b.addOperator(lineNum, *op)

	case first == "then":
		op, perr := parseOperator(args[1:], b.path, lineNum)
		if perr != nil {
			b.errs.Add(perr)
			return
		}
		if op == nil {
			// "then spy" style toggles handled as flags
			return
		}
		b.addOperator(lineNum, *op)

	default:
		b.errorf(lineNum, "unrecognized directive %q", line)
	}
}

type flags struct{ log, spy, verbose bool }

func (b *builder) setFlag(set func(*flags)) {
	var f flags
	set(&f)
	apply := func(log, spy, verbose *bool) {
		if f.log {
			*log = true
		}
		if f.spy {
			*spy = true
		}
		if f.verbose {
			*verbose = true
		}
	}
	switch {
	case b.rule != nil:
		apply(&b.rule.LogDisabled, &b.rule.SpyDisabled, &b.rule.VerboseDisabled)
	case b.group != nil:
		apply(&b.group.LogDisabled, &b.group.SpyDisabled, &b.group.VerboseDisabled)
	case b.msgGroup != nil:
		apply(&b.msgGroup.LogDisabled, &b.msgGroup.SpyDisabled, &b.msgGroup.VerboseDisabled)
	}
}

func (b *builder) setCommandPrefixFlag(rest string) {
	value := true
	if rest != "" {
		value, _ = strconv.ParseBool(rest)
	}
	switch {
	case b.rule != nil:
		b.rule.IgnoreCommandPrefix = value
	case b.group != nil:
		b.group.IgnoreCommandPrefix = value
	}
}

func (b *builder) setDelay(lineNum int, t ast.Throttle, perPlayer bool) {
	switch {
	case b.rule != nil:
		if perPlayer {
			if b.rule.PlayerDelay != nil {
				b.errorf(lineNum, "'player delay' already defined")
				return
			}
			b.rule.PlayerDelay = &t
		} else {
			if b.rule.Delay != nil {
				b.errorf(lineNum, "'delay' already defined")
				return
			}
			b.rule.Delay = &t
		}
	case b.msgGroup != nil:
		if b.msgGroup.Delay != nil {
			b.errorf(lineNum, "'delay' already defined")
			return
		}
		b.msgGroup.Delay = &t
	default:
		b.errorf(lineNum, "'delay' is not valid in group definitions")
	}
}

func (b *builder) setExpires(lineNum int, t time.Time) {
	switch {
	case b.rule != nil:
		b.rule.Expires = &t
	case b.msgGroup != nil:
		b.msgGroup.Expires = &t
	default:
		b.errorf(lineNum, "'expires' is not valid in group definitions")
	}
}

func (b *builder) withRule(lineNum int, directive string, fn func(*ast.Rule)) {
	if b.rule == nil {
		b.errorf(lineNum, "%q is only valid on rules", directive)
		return
	}
	fn(b.rule)
}

func (b *builder) withMessageGroup(lineNum int, directive string, fn func(*ast.MessageGroup)) {
	if b.msgGroup == nil {
		b.errorf(lineNum, "%q is only valid in message groups", directive)
		return
	}
	fn(b.msgGroup)
}

func (b *builder) addCondition(lineNum int, cond ast.Condition) {
	switch {
	case b.rule != nil:
		b.rule.Conditions = append(b.rule.Conditions, cond)
	case b.group != nil:
		b.group.Conditions = append(b.group.Conditions, cond)
	case b.msgGroup != nil:
		b.msgGroup.Conditions = append(b.msgGroup.Conditions, cond)
	default:
		b.errorf(lineNum, "condition before any declaration")
	}
}

func (b *builder) addOperator(lineNum int, op ast.Operator) {
	switch {
	case b.rule != nil:
		b.rule.Operators = append(b.rule.Operators, op)
	case b.group != nil:
		b.group.Operators = append(b.group.Operators, op)
	case b.msgGroup != nil:
		b.msgGroup.Operators = append(b.msgGroup.Operators, op)
	default:
		b.errorf(lineNum, "operator before any declaration")
	}
}

// parseCondition parses the arguments after `require` or `ignore`.
func parseCondition(mode ast.ConditionMode, args []string, file string, line int) (*ast.Condition, *rlErrors.Error) {
	if len(args) == 0 {
		return nil, rlErrors.Syntaxf(file, line, "%s requires a condition kind", mode)
	}

	cond := &ast.Condition{Mode: mode, Qualifier: ast.QualifierSender, File: file, Line: line}

	// Optional qualifier before the kind.
	switch args[0] {
	case "sender":
		args = args[1:]
	case "receiver":
		cond.Qualifier = ast.QualifierReceiver
		args = args[1:]
	case "killer":
		// "killer" doubles as a kind ("require killer player") and a
		// qualifier ("require killer perm some.node").
		if len(args) > 1 {
			switch args[1] {
			case "perm", "permission", "script", "world", "worlds", "gamemode", "gamemodes":
				cond.Qualifier = ast.QualifierKiller
				args = args[1:]
			case "item", "items":
				cond.Kind = ast.CondKillerItem
				cond.Values = splitVertically(rangeRest(args, 2))
				return cond, nil
			}
		}
	}

	if len(args) == 0 {
		return nil, rlErrors.Syntaxf(file, line, "%s: missing condition kind", mode)
	}

	kind := args[0]
	rest := rangeRest(args, 1)

	switch kind {
	case "perm", "permission":
		cond.Kind = ast.CondPerm
		parts := strings.Fields(rest)
		if len(parts) == 0 {
			return nil, rlErrors.Syntaxf(file, line, "%s perm requires a permission node", mode)
		}
		cond.Key = parts[0]
		if len(parts) > 1 {
			if mode == ast.ModeIgnore {
				return nil, rlErrors.Syntaxf(file, line, "ignore perm does not take a failure message")
			}
			cond.FailMessage = strings.Join(parts[1:], " ")
		}

	case "command", "commands":
		cond.Kind = ast.CondCommand
		cond.Values = splitVertically(rest)

	case "commandprefix":
		cond.Kind = ast.CondCommandPrefix

	case "string":
		cond.Kind = ast.CondString
		if rest == "" {
			return nil, rlErrors.Syntaxf(file, line, "%s string requires a pattern", mode)
		}
		cond.Pattern = rest

	case "channel", "channels":
		cond.Kind = ast.CondChannel
		parts := strings.Fields(rest)
		if len(parts) == 0 {
			return nil, rlErrors.Syntaxf(file, line, "%s channel requires a channel name", mode)
		}
		cond.Key = parts[0]
		if len(parts) > 1 {
			chmode := parts[1]
			if chmode != "read" && chmode != "write" {
				return nil, rlErrors.Syntaxf(file, line, "channel mode must be 'read' or 'write', got %q", chmode)
			}
			cond.ChannelMode = chmode
		}

	case "world", "worlds":
		cond.Kind = ast.CondWorld
		cond.Values = splitVertically(rest)

	case "gamemode", "gamemodes":
		cond.Kind = ast.CondGamemode
		for _, gm := range splitVertically(rest) {
			cond.Values = append(cond.Values, strings.ToLower(gm))
		}

	case "key":
		cond.Kind = ast.CondKey
		parts := strings.Fields(rest)
		if len(parts) == 0 {
			return nil, rlErrors.Syntaxf(file, line, "%s key requires a key name", mode)
		}
		cond.Key = parts[0]
		if len(parts) > 1 {
			cond.Script = strings.Join(parts[1:], " ")
		}

	case "script":
		cond.Kind = ast.CondScript
		if rest == "" {
			return nil, rlErrors.Syntaxf(file, line, "%s script requires an expression", mode)
		}
		cond.Script = rest

	case "variable":
		cond.Kind = ast.CondVariable
		parts := strings.Fields(rest)
		if len(parts) == 0 || len(parts) > 2 {
			return nil, rlErrors.Syntaxf(file, line, "%s variable syntax: <variable> [true|false]", mode)
		}
		cond.Variable = parts[0]
		cond.Expect = "true"
		if len(parts) == 2 {
			cond.Expect = parts[1]
		}

	case "projectile", "projectiles":
		cond.Kind = ast.CondProjectile
		cond.Values = lowerAll(splitVertically(rest))

	case "killer", "killers":
		cond.Kind = ast.CondKiller
		cond.Values = lowerAll(splitVertically(rest))

	case "cause", "causes":
		cond.Kind = ast.CondCause
		cond.Values = lowerAll(splitVertically(rest))

	case "self":
		cond.Kind = ast.CondSelf

	case "playedbefore":
		cond.Kind = ast.CondPlayedBefore

	case "boss", "bosses":
		cond.Kind = ast.CondBoss
		cond.Values = splitVertically(rest)

	case "npc":
		cond.Kind = ast.CondNPC

	default:
		return nil, rlErrors.Syntaxf(file, line, "unknown condition kind %q", kind)
	}

	return cond, nil
}

// parseOperator parses the arguments after `then`. A nil operator with nil
// error means the directive was a recognized no-op for this engine.
func parseOperator(args []string, file string, line int) (*ast.Operator, *rlErrors.Error) {
	if len(args) == 0 {
		return nil, rlErrors.Syntaxf(file, line, "'then' requires an operator")
	}

	op := &ast.Operator{File: file, Line: line}
	kind := args[0]
	rest := rangeRest(args, 1)

	switch kind {
	case "deny":
		op.Type = ast.OpDeny
		if rest == "silently" {
			op.Silent = true
		} else if rest != "" {
			return nil, rlErrors.Syntaxf(file, line, "'then deny' takes no argument except 'silently', got %q", rest)
		}

	case "abort":
		op.Type = ast.OpAbort

	case "replace":
		op.Type = ast.OpReplace
		op.Text = rest

	case "rewrite":
		op.Type = ast.OpRewrite
		if rest == "" {
			return nil, rlErrors.Syntaxf(file, line, "'then rewrite' requires at least one alternative")
		}
		op.Text = rest

	case "warn", "alert", "message":
		op.Type = ast.OpWarn
		if rest == "" {
			return nil, rlErrors.Syntaxf(file, line, "'then warn' requires a message")
		}
		op.Text = rest

	case "notify":
		op.Type = ast.OpNotify
		parts := strings.Fields(rest)
		if len(parts) < 2 {
			return nil, rlErrors.Syntaxf(file, line, "'then notify' syntax: <permission> <message>")
		}
		op.Permission = parts[0]
		op.Text = strings.Join(parts[1:], " ")

	case "console", "consolecommand", "consolecommands":
		op.Type = ast.OpConsole
		if rest == "" {
			return nil, rlErrors.Syntaxf(file, line, "'then console' requires a command")
		}
		op.Text = rest

	case "command", "commands", "playercommand", "playercommands":
		op.Type = ast.OpCommand
		if rest == "" {
			return nil, rlErrors.Syntaxf(file, line, "'then command' requires a command")
		}
		op.Text = rest

	case "kick":
		op.Type = ast.OpKick
		op.Text = rest

	case "points":
		op.Type = ast.OpPoints
		parts := strings.Fields(rest)
		if len(parts) != 2 {
			return nil, rlErrors.Syntaxf(file, line, "'then points' syntax: <category> <amount>")
		}
		amount, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, rlErrors.Syntaxf(file, line, "invalid points amount %q", parts[1])
		}
		op.Category = parts[0]
		op.Amount = amount

	case "log":
		op.Type = ast.OpLog
		if rest == "" {
			return nil, rlErrors.Syntaxf(file, line, "'then log' requires a message")
		}
		op.Text = rest

	case "sound":
		op.Type = ast.OpSound
		sound, err := parseSound(rest)
		if err != nil {
			return nil, rlErrors.Syntaxf(file, line, "invalid 'then sound': %v; valid: <name>, <volume>, <pitch>", err)
		}
		op.Sound = sound

	default:
		return nil, rlErrors.Syntaxf(file, line, "unrecognized operator 'then %s'", kind)
	}

	return op, nil
}

func parseSaveKey(rest, file string, line int) (*ast.Operator, *rlErrors.Error) {
	parts := strings.Fields(rest)
	if len(parts) == 0 {
		return nil, rlErrors.Syntaxf(file, line, "'save key' syntax: <name> [value]")
	}
	op := &ast.Operator{Type: ast.OpSaveKey, Key: parts[0], File: file, Line: line}
	if len(parts) > 1 {
		op.Value = strings.Join(parts[1:], " ")
	}
	return op, nil
}

func parseSound(rest string) (ast.Sound, error) {
	parts := strings.Split(rest, ",")
	if len(parts) != 3 {
		return ast.Sound{}, fmt.Errorf("expected 3 comma-separated fields, got %d", len(parts))
	}
	volume, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return ast.Sound{}, fmt.Errorf("invalid volume %q", parts[1])
	}
	pitch, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return ast.Sound{}, fmt.Errorf("invalid pitch %q", parts[2])
	}
	return ast.Sound{Name: strings.TrimSpace(parts[0]), Volume: volume, Pitch: pitch}, nil
}

// parseThrottle parses "<amount> <unit> [message]".
func parseThrottle(rest string) (ast.Throttle, error) {
	parts := strings.Fields(rest)
	if len(parts) < 2 {
		return ast.Throttle{}, fmt.Errorf("expected <amount> <unit>")
	}

	amount, err := strconv.Atoi(parts[0])
	if err != nil || amount <= 0 {
		return ast.Throttle{}, fmt.Errorf("invalid amount %q", parts[0])
	}

	var unit time.Duration
	switch strings.TrimSuffix(parts[1], "s") {
	case "second":
		unit = time.Second
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	default:
		return ast.Throttle{}, fmt.Errorf("unknown unit %q", parts[1])
	}

	t := ast.Throttle{Every: time.Duration(amount) * unit}
	if len(parts) > 2 {
		t.Message = strings.Join(parts[2:], " ")
	}
	return t, nil
}

func parseDate(rest string) (time.Time, error) {
	for _, layout := range expiresLayouts {
		if t, err := time.ParseInLocation(layout, rest, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", rest)
}

func parseOptionalBool(rest string) *bool {
	value := true
	if rest != "" {
		value, _ = strconv.ParseBool(rest)
	}
	return &value
}

// splitVertically splits on unescaped | and unescapes the parts.
func splitVertically(text string) []string {
	if text == "" {
		return nil
	}

	var parts []string
	var current strings.Builder
	escaped := false

	for _, r := range text {
		switch {
		case escaped:
			if r != '|' {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		current.WriteRune('\\')
	}
	parts = append(parts, current.String())
	return parts
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func joinRange(args []string, from, to int) string {
	if to > len(args) {
		to = len(args)
	}
	if from >= to {
		return ""
	}
	return strings.Join(args[from:to], " ")
}

func rangeRest(args []string, from int) string {
	if from >= len(args) {
		return ""
	}
	return strings.Join(args[from:], " ")
}
