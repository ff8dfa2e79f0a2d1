package tagname

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Gardening", "gardening"},
		{"spaces removed", "Dog Walking", "dogwalking"},
		{"hyphens kept", "dog-walking", "dog-walking"},
		{"punctuation stripped", "DOG WALKING!", "dogwalking"},
		{"digits stripped", "Top 10 Hikes", "tophikes"},
		{"mixed whitespace", "  book\tclub  ", "bookclub"},
		{"unicode stripped", "café", "caf"},
		{"empty", "", ""},
		{"only invalid", "123!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_SpellingsConverge(t *testing.T) {
	spellings := []string{"Dog Walking", "dog walking", "DOG WALKING!", "  dog   walking  "}
	want := Canonicalize(spellings[0])
	for _, s := range spellings[1:] {
		if got := Canonicalize(s); got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", s, got, want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"title cased", "dog walking", "Dog Walking"},
		{"acronym survives", "NYC  dog walking", "NYC Dog Walking"},
		{"hyphen segments preserved", "check-in desk", "Check-In Desk"},
		{"punctuation stripped", "food & drink!", "Food Drink"},
		{"already formatted", "Book Club", "Book Club"},
		{"all caps word", "DIY projects", "DIY Projects"},
		{"trimmed", "  hiking  ", "Hiking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
