package names

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jiří", "Jiri"},
		{"Nováková", "Novakova"},
		{"François", "Francois"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RemoveDiacritics(tt.in); got != tt.want {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jana Nováková", "jana novakova"},
		{"Anne-Marie", "anne marie"},
		{"  double   spaced  ", "double spaced"},
		{"UPPER", "upper"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"Jana Nováková", "novakova", true},
		{"Jana Nováková", "Nováková", true},
		{"Jana Nováková", "jana nov", true},
		{"Jana Nováková", "petr", false},
		{"Anne-Marie", "anne marie", true},
		{"anyone", "", true},
	}
	for _, tt := range tests {
		if got := Matches(tt.name, tt.query); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.name, tt.query, got, tt.want)
		}
	}
}
