package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	cases := []struct {
		raw  string
		want map[string]string
	}{
		{raw: "", want: nil},
		{raw: "a=1", want: map[string]string{"a": "1"}},
		{raw: " a = 1 , b=2,broken,=x", want: map[string]string{"a": "1", "b": "2"}},
		{raw: "novalue=", want: nil},
	}
	for _, tc := range cases {
		got := parseHeaders(tc.raw)
		if len(got) != len(tc.want) {
			t.Fatalf("parseHeaders(%q)=%v, want %v", tc.raw, got, tc.want)
		}
		for k, v := range tc.want {
			if got[k] != v {
				t.Fatalf("parseHeaders(%q)[%q]=%q, want %q", tc.raw, k, got[k], v)
			}
		}
	}
}

func TestClampRatio(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0.1}, {-1, 0.1}, {0.5, 0.5}, {2, 1},
	}
	for _, tc := range cases {
		if got := clampRatio(tc.in); got != tc.want {
			t.Fatalf("clampRatio(%v)=%v, want %v", tc.in, got, tc.want)
		}
	}
}
