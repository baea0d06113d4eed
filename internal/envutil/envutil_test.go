package envutil

import (
	"os"
	"reflect"
	"testing"
)

func TestParent(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_KEY", "present")

	env := Parent()
	if env["ENVUTIL_TEST_KEY"] != "present" {
		t.Errorf("Parent missing set variable, got %q", env["ENVUTIL_TEST_KEY"])
	}
	if _, ok := env["PATH"]; !ok && os.Getenv("PATH") != "" {
		t.Error("Parent dropped PATH")
	}
}

func TestMerge(t *testing.T) {
	base := map[string]string{"A": "1", "B": "2"}
	override := map[string]string{"B": "3", "C": "4"}

	got := Merge(base, override)
	want := map[string]string{"A": "1", "B": "3", "C": "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}

	// Inputs are untouched.
	if base["B"] != "2" {
		t.Error("Merge modified the base map")
	}
}

func TestFormat(t *testing.T) {
	env := map[string]string{"ZED": "last", "ALPHA": "first", "EMPTY": ""}

	got := Format(env)
	want := []string{"ALPHA=first", "EMPTY=", "ZED=last"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Format = %v, want %v", got, want)
	}
}
