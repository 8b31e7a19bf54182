package slug_test

import (
	"testing"

	"everest/internal/platform/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"":                  "",
		"   ":               "",
		"Col du Galibier":   "col_du_galibier",
		"  --Alpe d'Huez!!": "alpe_d_huez",
		"Воробьёвы горы":    "воробьёвы_горы",
		"Loop #7 (north)":   "loop_7_north",
	}
	for in, want := range cases {
		if got := slug.Make(in, '_'); got != want {
			t.Fatalf("Make(%q) = %q, want %q", in, got, want)
		}
	}
	if got := slug.Make("a b", '-'); got != "a-b" {
		t.Fatalf("custom separator: %q", got)
	}
}
