package row

import "strings"

// Comment rows carry metadata instead of translatable text. Their source
// column holds one of these sentinels.
const (
	CommentPrefix = "<!--"
	CommentSuffix = " -->"

	MapComment      = "<!-- Map ID -->"
	EventComment    = "<!-- Event ID -->"
	SystemComment   = "<!-- System Entry -->"
	ScriptComment   = "<!-- Script ID -->"
	PluginComment   = "<!-- Plugin ID -->"
	BookmarkComment = "<!-- Bookmark -->"
	IDComment       = "<!-- ID -->"

	DisplayNamePrefix = "<!-- In-game Displayed Name: "
)

// FileComment returns the sentinel whose rows carry the entry index in the
// given file.
func FileComment(filename string) string {
	switch {
	case strings.HasPrefix(filename, "map"):
		return MapComment
	case strings.HasPrefix(filename, "system"):
		return SystemComment
	case strings.HasPrefix(filename, "scripts"):
		return ScriptComment
	case strings.HasPrefix(filename, "plugins"):
		return PluginComment
	default:
		return EventComment
	}
}

// IsComment reports whether a source value marks a comment row.
func IsComment(source string) bool {
	return strings.HasPrefix(source, CommentPrefix)
}

// DisplayName extracts the name wrapped by a display-name comment.
func DisplayName(source string) (string, bool) {
	if len(source) < len(DisplayNamePrefix)+len(CommentSuffix) ||
		!strings.HasPrefix(source, DisplayNamePrefix) || !strings.HasSuffix(source, CommentSuffix) {
		return "", false
	}
	inner := source[len(DisplayNamePrefix) : len(source)-len(CommentSuffix)]
	return inner, true
}

// DisplayNameComment wraps a name in a display-name comment.
func DisplayNameComment(name string) string {
	return DisplayNamePrefix + name + CommentSuffix
}
