package request

import (
	"errors"
	"testing"
)

func TestQueryStringEmpty(t *testing.T) {
	m := NewWithClient("https://example.com", &fakeClient{})
	if got := m.QueryString(); got != "" {
		t.Fatalf("expected empty query string, got %q", got)
	}
}

func TestQueryStringInsertionOrderAndEncoding(t *testing.T) {
	m := NewWithClient("", &fakeClient{})
	if err := m.SetQueryParam("a", "1"); err != nil {
		t.Fatalf("SetQueryParam a: %v", err)
	}
	if err := m.SetQueryParam("b", "x y"); err != nil {
		t.Fatalf("SetQueryParam b: %v", err)
	}
	if got := m.QueryString(); got != "?a=1&b=x+y" {
		t.Fatalf("unexpected query string %q", got)
	}
}

func TestQueryStringOverwriteKeepsPosition(t *testing.T) {
	m := NewWithClient("", &fakeClient{})
	_ = m.SetQueryParam("z", "first")
	_ = m.SetQueryParam("a", "1")
	_ = m.SetQueryParam("z", "last")
	if got := m.QueryString(); got != "?z=last&a=1" {
		t.Fatalf("unexpected query string %q", got)
	}
}

func TestQueryStringEscapesKeysAndReservedValues(t *testing.T) {
	m := NewWithClient("", &fakeClient{})
	_ = m.SetQueryParam("q&x", "a=b&c/d")
	if got := m.QueryString(); got != "?q%26x=a%3Db%26c%2Fd" {
		t.Fatalf("unexpected query string %q", got)
	}
}

type stringerValue struct{ v string }

func (s stringerValue) String() string { return "S:" + s.v }

func TestStringifyContract(t *testing.T) {
	n := 7
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "abc", "abc"},
		{"int", 42, "42"},
		{"negative int64", int64(-3), "-3"},
		{"uint8", uint8(9), "9"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"bytes", []byte("raw"), "raw"},
		{"stringer", stringerValue{v: "x"}, "S:x"},
		{"pointer", &n, "7"},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Stringify(tc.value)
			if err != nil {
				t.Fatalf("Stringify(%v): %v", tc.value, err)
			}
			if got != tc.want {
				t.Fatalf("Stringify(%v) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestStringifyRejectsCompositeValues(t *testing.T) {
	for name, value := range map[string]any{
		"slice":  []string{"a", "b"},
		"array":  [2]int{1, 2},
		"map":    map[string]string{"a": "b"},
		"struct": struct{ A int }{A: 1},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Stringify(value); !errors.Is(err, ErrUnsupportedValue) {
				t.Fatalf("expected ErrUnsupportedValue, got %v", err)
			}
		})
	}
}

func TestSetQueryParamsIsAllOrNothing(t *testing.T) {
	m := NewWithClient("", &fakeClient{})
	err := m.SetQueryParams(map[string]any{
		"a":   "1",
		"bad": []int{1},
	})
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
	if got := m.QueryString(); got != "" {
		t.Fatalf("expected no params applied, got %q", got)
	}
}

func TestSetQueryParamsMergesInSortedOrder(t *testing.T) {
	m := NewWithClient("", &fakeClient{})
	_ = m.SetQueryParam("page", 1)
	if err := m.SetQueryParams(map[string]any{"size": 20, "page": 3, "filter": "new"}); err != nil {
		t.Fatalf("SetQueryParams: %v", err)
	}
	if got := m.QueryString(); got != "?page=3&filter=new&size=20" {
		t.Fatalf("unexpected query string %q", got)
	}
	if v, ok := m.QueryParam("size"); !ok || v != "20" {
		t.Fatalf("expected size=20, got %q ok=%v", v, ok)
	}
}
