package intent

import (
	"strings"

	"github.com/doeshing/smartos-go/internal/domain"
)

// DefaultApps is the application catalog shipped with SmartOS.
var DefaultApps = []domain.AppDefinition{
	{Name: "notepad", Aliases: []string{"text editor", "note"}},
	{Name: "calculator", Aliases: []string{"calc"}},
	{Name: "browser", Aliases: []string{"chrome", "firefox", "edge", "internet", "web browser"}},
	{Name: "explorer", Aliases: []string{"file manager", "files", "folder", "file explorer"}},
	{Name: "cmd", Aliases: []string{"command prompt", "terminal", "console"}},
	{Name: "powershell", Aliases: []string{"ps"}},
	{Name: "code", Aliases: []string{"vscode", "vs code", "visual studio code", "code editor"}},
	{Name: "word", Aliases: []string{"microsoft word", "document"}},
	{Name: "excel", Aliases: []string{"microsoft excel", "spreadsheet"}},
}

// MergeApps overlays extra onto base. Entries with a known name add aliases
// and may override the command; unknown names are appended in order.
func MergeApps(base, extra []domain.AppDefinition) []domain.AppDefinition {
	out := make([]domain.AppDefinition, 0, len(base)+len(extra))
	pos := make(map[string]int, len(base))
	for _, app := range base {
		app.Aliases = append([]string(nil), app.Aliases...)
		pos[strings.ToLower(app.Name)] = len(out)
		out = append(out, app)
	}
	for _, app := range extra {
		name := strings.ToLower(strings.TrimSpace(app.Name))
		if name == "" {
			continue
		}
		if i, ok := pos[name]; ok {
			out[i].Aliases = appendUnique(out[i].Aliases, app.Aliases...)
			if app.Command != "" {
				out[i].Command = app.Command
			}
			continue
		}
		app.Name = name
		pos[name] = len(out)
		out = append(out, app)
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range items {
		if k := strings.ToLower(s); !seen[k] {
			seen[k] = true
			list = append(list, s)
		}
	}
	return list
}

// AppLexicon maps catalog names to their aliases.
func AppLexicon(apps []domain.AppDefinition) Lexicon {
	lex := make(Lexicon, len(apps))
	for _, app := range apps {
		lex[strings.ToLower(app.Name)] = app.Aliases
	}
	return lex
}

// FileOperations maps file verbs to the operation they request.
var FileOperations = Lexicon{
	"create":   {"make", "new", "add", "touch"},
	"write":    {"type", "insert", "append"},
	"save":     {"store"},
	"delete":   {"remove", "erase", "trash"},
	"copy":     {"duplicate"},
	"move":     {"transfer", "relocate"},
	"rename":   {},
	"organize": {"tidy", "sort"},
}

// SystemControls maps system-control phrases to their canonical target.
var SystemControls = Lexicon{
	"shutdown":   {"shut down", "power off", "turn off computer"},
	"restart":    {"reboot"},
	"sleep":      {"suspend"},
	"hibernate":  {},
	"lock":       {"lock screen"},
	"wifi":       {"wireless", "network", "internet connection"},
	"bluetooth":  {},
	"volume":     {"sound", "audio", "mute", "unmute"},
	"settings":   {"system", "configure", "configuration", "preferences"},
	"automation": {"automate", "schedule", "workflow"},
}

// ContentKinds maps content nouns to the kind of text requested.
var ContentKinds = Lexicon{
	"essay":    {},
	"document": {"documentation"},
	"letter":   {},
	"report":   {},
	"email":    {"mail"},
	"summary":  {},
	"notes":    {"memo"},
	"article":  {},
	"reminder": {},
}

// BuiltinRules returns the four built-in rules in tie-break order.
func BuiltinRules(apps []domain.AppDefinition) []PatternRule {
	appLex := AppLexicon(apps)
	appWords := append([]string{"app", "apps", "application", "applications", "program", "programs", "tools"}, appLex.Phrases()...)

	return []PatternRule{
		{
			Action:     domain.ActionOpenApplication,
			Category:   domain.CategoryApplications,
			Keywords:   []string{"open", "application"},
			Aliases:    map[string][]string{"open": {"launch", "start", "run"}, "application": appWords},
			Target:     LookupTarget(appLex, NextWord),
			Parameters: CommonParameters,
		},
		{
			Action:     domain.ActionContentCreation,
			Category:   domain.CategoryContent,
			Keywords:   []string{"compose", "piece", "about"},
			Aliases: map[string][]string{
				"compose": {"write", "draft", "create", "generate", "prepare"},
				"piece":   ContentKinds.Phrases(),
				"about":   {"on", "regarding"},
			},
			Target:     LookupTarget(ContentKinds, nil),
			Parameters: CommonParameters,
		},
		{
			Action:     domain.ActionSystemControl,
			Category:   domain.CategorySystem,
			Keywords:   []string{"control"},
			Aliases:    map[string][]string{"control": SystemControls.Phrases()},
			Target:     LookupTarget(SystemControls, nil),
			Parameters: CommonParameters,
		},
		{
			Action:   domain.ActionFileOperation,
			Category: domain.CategoryFiles,
			Keywords: []string{"modify", "file"},
			Aliases: map[string][]string{
				"modify": FileOperations.Phrases(),
				"file": {
					"files", "folder", "folders", "directory", "documents", "readme",
					"*.txt", "*.md", "*.doc", "*.docx", "*.csv", "*.json", "*.log", "*.py", "*.pdf", "*.yaml",
				},
			},
			Target:     LookupTarget(FileOperations, nil),
			Parameters: CommonParameters,
		},
	}
}

// RuleFromCustom converts a configured custom command into a rule.
func RuleFromCustom(cc domain.CustomCommand) (PatternRule, error) {
	category := domain.CategoryCustom
	if cc.Category != "" {
		c, err := domain.ParseCategory(cc.Category)
		if err != nil {
			return PatternRule{}, err
		}
		category = c
	}
	rule := PatternRule{
		Action:     domain.Action(strings.TrimSpace(cc.Action)),
		Category:   category,
		Keywords:   cc.Keywords,
		Aliases:    cc.Aliases,
		Target:     NextWord,
		Parameters: CommonParameters,
	}
	if len(cc.Targets) > 0 {
		rule.Target = LookupTarget(Lexicon(cc.Targets), NextWord)
	}
	return rule, nil
}

// BuildRegistry registers the built-in rules followed by custom commands.
func BuildRegistry(cfg domain.Config) (*Registry, error) {
	reg, err := NewRegistry(BuiltinRules(MergeApps(DefaultApps, cfg.SupportedApps))...)
	if err != nil {
		return nil, err
	}
	for _, cc := range cfg.CustomCommands {
		rule, err := RuleFromCustom(cc)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(rule); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
