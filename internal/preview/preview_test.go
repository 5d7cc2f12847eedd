package preview

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cryguy/zero/internal/core"
)

func TestNormalize_Keyed(t *testing.T) {
	got, err := Normalize([]string{"k1", "v1", "k2", "v2"}, true)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []Pair[string]{{Key: "k1", Value: "v1"}, {Key: "k2", Value: "v2"}}
	if !got.Keyed {
		t.Error("Keyed = false, want true")
	}
	if !reflect.DeepEqual(got.Pairs, want) {
		t.Errorf("Pairs = %v, want %v", got.Pairs, want)
	}
	if got.Len() != 2 {
		t.Errorf("Len = %d, want 2", got.Len())
	}
}

func TestNormalize_UnkeyedIsUnchanged(t *testing.T) {
	flat := []string{"a", "b", "c"}
	got, err := Normalize(flat, false)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !reflect.DeepEqual(got.Values, flat) {
		t.Errorf("Values = %v, want %v", got.Values, flat)
	}
	if &got.Values[0] != &flat[0] {
		t.Error("unkeyed dump should be returned as-is, not copied")
	}
}

func TestNormalize_OddKeyedFails(t *testing.T) {
	_, err := Normalize([]int{1, 2, 3}, true)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, keyed := range []bool{true, false} {
		got, err := Normalize([]int{}, keyed)
		if err != nil {
			t.Fatalf("Normalize(empty, %v): %v", keyed, err)
		}
		if got.Len() != 0 {
			t.Errorf("Len = %d, want 0", got.Len())
		}
	}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		keyed bool
		want  [][]int
	}{
		{"keyed", 4, true, [][]int{{0, 1}, {2, 3}}},
		{"unkeyed", 3, false, [][]int{{0}, {1}, {2}}},
		{"empty keyed", 0, true, [][]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Layout(tt.n, tt.keyed)
			if err != nil {
				t.Fatalf("Layout: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Layout(%d, %v) = %v, want %v", tt.n, tt.keyed, got, tt.want)
			}
		})
	}

	if _, err := Layout(5, true); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Layout(5, true) err = %v, want ErrInvalidInput", err)
	}
}
