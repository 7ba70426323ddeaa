package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Stripper removes markup from a string and returns what is left as text.
// *bluemonday.Policy satisfies it.
type Stripper interface {
	Sanitize(s string) string
}

// strict is a cached bluemonday policy that removes all HTML tags and attributes.
// It's safe for concurrent use as bluemonday.Policy is read-only after build.
// WARNING: Never call mutating helpers (e.g. AddAttr, AllowElements) on this policy
// after initialization as it would create a data race.
var strict = bluemonday.StrictPolicy()

// spaced is strict plus a space wherever a tag was removed so adjacent words
// don't get glued together. Used for free text headed for storage.
var spaced = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// bluemonday re-escapes quotes in text nodes; they carry no markup meaning
// outside an attribute, so plain text gets them back.
var quoteUnescaper = strings.NewReplacer("&#39;", "'", "&#34;", `"`)

// tagOpen matches the start of anything a browser would parse as markup.
var tagOpen = regexp.MustCompile(`<[a-zA-Z/!?]`)

// Default returns the shared strip-everything policy.
func Default() Stripper {
	return strict
}

// NewStripper builds a policy that keeps only the given elements and
// attributes. With both lists empty it is equivalent to Default.
func NewStripper(allowedTags, allowedAttrs []string) Stripper {
	if len(allowedTags) == 0 && len(allowedAttrs) == 0 {
		return bluemonday.StrictPolicy()
	}

	p := bluemonday.NewPolicy()
	if len(allowedTags) > 0 {
		p.AllowElements(allowedTags...)
	}
	if len(allowedAttrs) > 0 {
		if len(allowedTags) > 0 {
			p.AllowAttrs(allowedAttrs...).OnElements(allowedTags...)
		} else {
			p.AllowAttrs(allowedAttrs...).Globally()
		}
	}
	return p
}

// String strips every tag and attribute from string input. Any other value
// is returned untouched; callers handle non-string types upstream.
//
// Examples:
//   - "<script>alert(1)</script>hello" -> "hello"
//   - "<b>100</b>" -> "100"
//   - 42 -> 42 (not a string, passed through)
func String(input any) any {
	s, ok := input.(string)
	if !ok {
		return input
	}
	return Text(s)
}

// Text is String for callers that already hold a string.
// The result never contains a tag; stray '<', '>' and '&' come back
// entity-escaped, so Text(Text(s)) == Text(s).
func Text(s string) string {
	return TextWith(strict, s)
}

// TextWith is Text using a caller supplied stripper.
func TextWith(p Stripper, s string) string {
	if s == "" {
		return ""
	}
	return quoteUnescaper.Replace(p.Sanitize(s))
}

// Sanitize strips all HTML from arbitrary user input while preserving readability.
//
// Examples:
//   - "<script>alert('xss')</script>Hello" -> "Hello"
//   - "<p>Hello <b>world</b></p>" -> " Hello  world  " (note the spaces)
//   - "**markdown** text" -> "**markdown** text" (preserved)
func Sanitize(s string) string {
	return spaced.Sanitize(s)
}

// Clean sanitizes HTML and normalizes whitespace for clean storage.
// Every free-text payment field goes through it before hitting the DB;
// repositories assume already-cleaned input.
//
// It performs the following steps:
//  1. Strips all HTML tags while preserving spacing
//  2. Trims leading/trailing whitespace
//  3. Unescapes HTML entities for clean plaintext
//  4. Collapses multiple consecutive spaces to single space
//  5. Normalizes non-breaking spaces to regular spaces
//
// Examples:
//   - "<p>hi</p>" -> "hi"
//   - "<b>a</b> <b>b</b>" -> "a b"
//   - "  ORD-<i>42</i>  " -> "ORD- 42"
func Clean(s string) string {
	sanitized := spaced.Sanitize(s)
	sanitized = strings.TrimSpace(sanitized)

	// Unescape HTML entities first to handle &#13; etc. as single chars
	sanitized = html.UnescapeString(sanitized)

	// Unescaping can turn "&lt;b&gt;" back into a tag.
	if tagOpen.MatchString(sanitized) {
		sanitized = Text(sanitized)
	}

	sanitized = strings.ReplaceAll(sanitized, "\u00a0", " ")

	// Collapse multiple spaces while preserving newlines
	lines := strings.Split(sanitized, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
