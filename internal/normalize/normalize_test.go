package normalize

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "simple", value: "Caroline Toberman", want: "caroline toberman"},
		{name: "surrounding whitespace", value: "  Jane   Doe \t", want: "jane doe"},
		{name: "apostrophe and hyphen kept", value: "Mary-Kate O'Neil", want: "mary-kate o'neil"},
		{name: "digits and punctuation dropped", value: "J. Smith #3", want: "j smith"},
		{name: "accented letters dropped", value: "José Núñez", want: "jos nez"},
		{name: "newline collapses", value: "Ana\nLopez", want: "ana lopez"},
		{name: "empty", value: "", want: ""},
		{name: "only punctuation", value: "!!!", want: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Name(test.value); got != test.want {
				t.Fatalf("Name(%q) = %q, want %q", test.value, got, test.want)
			}
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{"Jane Doe 3", "  A  B  ", "Mary-Kate O'Neil", "José", "x y", ""}
	for _, input := range inputs {
		once := Name(input)
		if twice := Name(once); twice != once {
			t.Fatalf("Name(Name(%q)) = %q, want %q", input, twice, once)
		}
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain", value: "Kills", want: "kills"},
		{name: "underscores", value: "xyz_unrelated_col", want: "xyz unrelated col"},
		{name: "punctuation runs", value: "SA (attempts)", want: "sa attempts"},
		{name: "leading and trailing symbols", value: "#Kills%", want: "kills"},
		{name: "only symbols", value: "#", want: ""},
		{name: "digits kept", value: "Set 1 Kills", want: "set 1 kills"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Header(test.value); got != test.want {
				t.Fatalf("Header(%q) = %q, want %q", test.value, got, test.want)
			}
			if again := Header(Header(test.value)); again != test.want {
				t.Fatalf("Header not idempotent for %q: %q", test.value, again)
			}
		})
	}
}

func TestFold(t *testing.T) {
	if got := Fold("José Núñez"); got != "jose nunez" {
		t.Fatalf("Fold = %q, want %q", got, "jose nunez")
	}
	if got := Fold("Jose Nunez"); got != Name("Jose Nunez") {
		t.Fatalf("Fold of ASCII name = %q, want %q", got, Name("Jose Nunez"))
	}
}
