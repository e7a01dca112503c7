package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDirFontsWalksRecursively(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"Arial.ttf",
		"Roboto.Bold.TTF",
		filepath.Join("truetype", "dejavu", "DejaVuSans.ttf"),
		filepath.Join("opentype", "Inter.otf"),
		"readme.txt",
		"fonts.conf",
	}
	for _, name := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("font"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	set, err := Dir{Path: root}.Fonts()
	if err != nil {
		t.Fatalf("Fonts returned error: %v", err)
	}
	want := []string{"Arial", "DejaVuSans", "Inter", "Roboto"}
	if got := Sorted(set); !reflect.DeepEqual(got, want) {
		t.Fatalf("fonts = %v, want %v", got, want)
	}
}

func TestDirFontsMissingDirectory(t *testing.T) {
	_, err := Dir{Path: filepath.Join(t.TempDir(), "absent")}.Fonts()
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := (Dir{}).Fonts(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty path, got %v", err)
	}
}

func TestFontName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Arial.ttf", "Arial", true},
		{"Open Sans.OTF", "Open Sans", true},
		{"Noto.Regular.ttf", "Noto", true},
		{"font.woff", "", false},
		{".ttf", "", false},
	}
	for _, tt := range tests {
		got, ok := FontName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("FontName(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStaticAndUnavailable(t *testing.T) {
	set, err := Static{"Arial", "Inter"}.Fonts()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := set["Inter"]; !ok {
		t.Fatalf("expected Inter in %v", set)
	}
	if _, err := (Unavailable{}).Fonts(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
