// Package tagname provides tag name canonicalization and display formatting.
package tagname

import (
	"regexp"
	"strings"
)

var (
	// Matches any character outside lowercase letters, spaces, and hyphens.
	invalidCanonical = regexp.MustCompile(`[^a-z\s-]`)
	// Matches any character outside letters, spaces, and hyphens.
	invalidDisplay = regexp.MustCompile(`[^a-zA-Z\s-]`)
	// Matches runs of whitespace.
	whitespace = regexp.MustCompile(`\s+`)
)

// Canonicalize derives the unique key for a tag from any spelling.
// "Dog Walking", "dog-walking  " and "DOG WALKING!" all canonicalize
// to the same key.
func Canonicalize(displayName string) string {
	s := strings.ToLower(displayName)
	s = invalidCanonical.ReplaceAllString(s, "")
	return whitespace.ReplaceAllString(s, "")
}

// Format produces the human display form of a tag name: invalid
// characters stripped, each word title-cased unless it is already all
// uppercase (acronyms survive), hyphen segments preserved.
// "NYC  dog walking" -> "NYC Dog Walking".
func Format(name string) string {
	cleaned := strings.TrimSpace(invalidDisplay.ReplaceAllString(name, ""))

	segments := strings.Split(cleaned, "-")
	for i, segment := range segments {
		words := whitespace.Split(strings.TrimSpace(segment), -1)
		for j, word := range words {
			if word == "" || word == strings.ToUpper(word) {
				continue
			}
			words[j] = capitalize(word)
		}
		segments[i] = strings.Join(words, " ")
	}
	return strings.Join(segments, "-")
}

func capitalize(word string) string {
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
