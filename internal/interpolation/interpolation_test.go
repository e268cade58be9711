package interpolation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProtect(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      string
		originals []string
	}{
		{"plain", "Hello", "Hello", nil},
		{"variable", `You have \V[1] gold.`, "You have {{var_1}} gold.", []string{`\V[1]`}},
		{"color and name", `\C[2]\N[1]\C[0] joined!`, "{{var_1}}{{var_2}}{{var_3}} joined!", []string{`\C[2]`, `\N[1]`, `\C[0]`}},
		{"wait codes", `Wait\.\.\|done\!`, "Wait{{var_1}}{{var_2}}{{var_3}}done{{var_4}}", []string{`\.`, `\.`, `\|`, `\!`}},
		{"gold and backslash", `\G and \\`, "{{var_1}} and {{var_2}}", []string{`\G`, `\\`}},
		{"plugin code", `\n<Harold>Hi`, "{{var_1}}Hi", []string{`\n<Harold>`}},
		{"message parameter", "%1 took %2 damage!", "{{var_1}} took {{var_2}} damage!", []string{"%1", "%2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mappings := Protect(tt.text)
			if got != tt.want {
				t.Errorf("Protect(%q) = %q, want %q", tt.text, got, tt.want)
			}

			var originals []string
			for _, m := range mappings {
				originals = append(originals, m.Original)
			}
			if diff := cmp.Diff(tt.originals, originals); diff != "" {
				t.Errorf("originals mismatch (-want +got):\n%s", diff)
			}

			if back := Restore(got, mappings); back != tt.text {
				t.Errorf("Restore = %q, want %q", back, tt.text)
			}
		})
	}
}

func TestRestoreReordered(t *testing.T) {
	_, mappings := Protect(`\N[1] gives \N[2] a potion`)
	got := Restore("{{var_2}} получает зелье от {{var_1}}", mappings)
	if want := `\N[2] получает зелье от \N[1]`; got != want {
		t.Errorf("Restore = %q, want %q", got, want)
	}
}

func TestMissing(t *testing.T) {
	_, mappings := Protect(`\C[2]Hi\C[0]`)
	got := Missing("{{var_1}}Привет", mappings)
	if diff := cmp.Diff([]string{`\C[0]`}, got); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Plain text", "Plain text"},
		{`\C[2]Harold\C[0] says \{hi\}!`, "Harold says hi!"},
		{"\\V[1] gold\nfor %1", "gold for"},
		{`\G`, ""},
	}

	for _, tt := range tests {
		if got := Strip(tt.text); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
