package domain

import (
	"fmt"
	"strings"
)

// Defaults the file and content handlers fall back to.
const (
	DefaultFilename    = "untitled.txt"
	DefaultTopic       = "general topic"
	DefaultContentKind = "document"
)

// ContentKind returns the draft kind of a content_creation intent.
func ContentKind(in Intent) string {
	kind := strings.ToLower(strings.TrimSpace(in.Target))
	if kind == "" {
		return DefaultContentKind
	}
	return kind
}

// DraftFilename names the file a draft is written to.
func DraftFilename(kind, topic string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_")
	return fmt.Sprintf("%s_%s.txt", kind, replacer.Replace(strings.TrimSpace(topic)))
}

// TouchedPaths lists the paths an intent reads or writes once handler
// defaults are applied. Relative entries are relative to the working
// directory; "." is the working directory itself.
func TouchedPaths(in Intent) []string {
	switch in.Action {
	case ActionFileOperation:
		if strings.EqualFold(strings.TrimSpace(in.Target), "organize") {
			return []string{in.Param(ParamFilename, ".")}
		}
		paths := []string{in.Param(ParamFilename, DefaultFilename)}
		if dest := in.Param(ParamDestination, ""); dest != "" {
			paths = append(paths, dest)
		}
		return paths
	case ActionContentCreation:
		topic := in.Param(ParamTopic, DefaultTopic)
		return []string{in.Param(ParamFilename, DraftFilename(ContentKind(in), topic))}
	}
	return nil
}
