package compose

import "strings"

// drawtextEscaper escapes free text for interpolation into a drawtext
// filter argument. Backslash, colon, single-quote, and percent are all
// meaningful to the filter's mini-language; a newline becomes the
// filter's own \n sequence. The replacement runs in a single pass so
// inserted backslashes are never re-escaped.
var drawtextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`:`, `\:`,
	`'`, `\'`,
	`%`, `\%`,
	"\n", `\n`,
	"\r", ``,
)

// EscapeDrawtext escapes free text (title, footer) for the drawtext filter.
func EscapeDrawtext(s string) string {
	return drawtextEscaper.Replace(s)
}

// filterPathEscaper escapes a filesystem path for use as a filter option
// value (e.g. the subtitles filter). Colons would otherwise split the
// option list, quotes and backslashes would break the quoting.
var filterPathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`:`, `\:`,
	`'`, `\'`,
	`,`, `\,`,
)

// EscapeFilterPath escapes a file path for interpolation into a filter.
func EscapeFilterPath(s string) string {
	return filterPathEscaper.Replace(s)
}

// escapeEnableExpr escapes the commas in a time-gate expression: the
// enable option's own syntax uses commas as argument separators.
func escapeEnableExpr(expr string) string {
	return strings.ReplaceAll(expr, ",", `\,`)
}
