package services

import (
	"regexp"
	"strconv"
	"strings"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"chutiya", "madarchod", "behenchod", "bhenchod", "gaandu", "harami",
}

// ContentFilter rejects abusive language in complaint text and comments.
type ContentFilter struct {
	bannedWordRegexps   []*regexp.Regexp
	repeatedCharPattern *regexp.Regexp
}

func NewContentFilter(extra ...string) *ContentFilter {
	words := append(append([]string{}, BannedWords...), extra...)
	f := &ContentFilter{bannedWordRegexps: make([]*regexp.Regexp, 0, len(words))}
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		if err == nil {
			f.bannedWordRegexps = append(f.bannedWordRegexps, re)
		}
	}
	f.repeatedCharPattern = repeatedRunPattern("abcdefghijklmnopqrstuvwxyz!?.", 8)
	return f
}

func (f *ContentFilter) ContainsProfanity(text string) bool {
	for _, re := range f.bannedWordRegexps {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Check validates one text field and returns a field-level validation error.
func (f *ContentFilter) Check(field, text string) error {
	if f == nil || text == "" {
		return nil
	}
	if f.ContainsProfanity(text) {
		return FieldError(field, field+" contains inappropriate language")
	}
	if f.repeatedCharPattern.MatchString(text) {
		return FieldError(field, field+" appears to be spam")
	}
	return nil
}

// repeatedRunPattern matches any of chars repeated at least n times in a row.
// RE2 has no backreferences, so every character gets its own alternative.
func repeatedRunPattern(chars string, n int) *regexp.Regexp {
	alts := make([]string, 0, len(chars))
	for _, c := range chars {
		alts = append(alts, regexp.QuoteMeta(string(c))+"{"+strconv.Itoa(n)+",}")
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(alts, "|") + `)`)
}
