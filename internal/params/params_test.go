package params

import (
	"testing"
)

func TestBuildQueryString(t *testing.T) {
	tests := []struct {
		name  string
		query []QueryParam
		want  string
	}{
		{"empty", nil, ""},
		{"single", []QueryParam{{Key: "page", Value: "2", Enabled: true}}, "?page=2"},
		{
			name: "bare key and disabled row",
			query: []QueryParam{
				{Key: "page", Value: "2", Enabled: true},
				{Key: "debug", Enabled: true},
				{Key: "skip", Value: "x", Enabled: false},
				{Key: "", Value: "orphan", Enabled: true},
			},
			want: "?page=2&debug",
		},
		{"all disabled", []QueryParam{{Key: "a", Value: "1"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQueryString(tt.query); got != tt.want {
				t.Errorf("BuildQueryString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendQuery(t *testing.T) {
	tests := []struct {
		url, qs, want string
	}{
		{"https://x.io/a", "", "https://x.io/a"},
		{"https://x.io/a", "?b=1", "https://x.io/a?b=1"},
		{"https://x.io/a?z=0", "?b=1", "https://x.io/a?z=0&b=1"},
	}

	for _, tt := range tests {
		if got := AppendQuery(tt.url, tt.qs); got != tt.want {
			t.Errorf("AppendQuery(%q, %q) = %q, want %q", tt.url, tt.qs, got, tt.want)
		}
	}
}

func TestEncodeForm(t *testing.T) {
	fields := []FormField{
		{Key: "name", Value: "Ada Lovelace", Enabled: true},
		{Key: "expr", Value: "a+b=c&d", Enabled: true},
		{Key: "off", Value: "x", Enabled: false},
		{Key: "", Value: "orphan", Enabled: true},
		{Key: "ünï", Value: "~ok_.-", Enabled: true},
	}

	want := "name=Ada%20Lovelace&expr=a%2Bb%3Dc%26d&%C3%BCn%C3%AF=~ok_.-"
	if got := EncodeForm(fields); got != want {
		t.Errorf("EncodeForm() = %q, want %q", got, want)
	}
}

func TestFormRoundTrip(t *testing.T) {
	fields := []FormField{
		{Key: "q", Value: "hello world", Enabled: true},
		{Key: "sym", Value: "100% & +more", Enabled: true},
		{Key: "empty", Value: "", Enabled: true},
	}

	got := DecodeForm(EncodeForm(fields))
	if len(got) != len(fields) {
		t.Fatalf("Expected %d fields, got %d", len(fields), len(got))
	}
	for i := range fields {
		if got[i] != fields[i] {
			t.Errorf("Field %d: got %+v, want %+v", i, got[i], fields[i])
		}
	}
}

func TestDecodeFormLenient(t *testing.T) {
	got := DecodeForm("flag&bad=%zz&&a=1")
	if len(got) != 3 {
		t.Fatalf("Expected 3 fields, got %+v", got)
	}
	if got[0].Key != "flag" || got[0].Value != "" {
		t.Errorf("Expected bare key, got %+v", got[0])
	}
	if got[1].Value != "%zz" {
		t.Errorf("Expected undecodable value kept, got %q", got[1].Value)
	}
}

func TestFormMap(t *testing.T) {
	form := FormMap([]FormField{
		{Key: "a", Value: "1", Enabled: true},
		{Key: "a", Value: "2", Enabled: true},
		{Key: "b", Value: "x", Enabled: false},
	})
	if len(form) != 1 || form["a"] != "2" {
		t.Errorf("Unexpected form %v", form)
	}
}

func TestParseQuery(t *testing.T) {
	base, query := ParseQuery("https://x.io/s?q=go&raw#top")
	if base != "https://x.io/s" {
		t.Errorf("Unexpected base %q", base)
	}
	if len(query) != 2 || query[0].Key != "q" || query[0].Value != "go" || query[1].Key != "raw" {
		t.Errorf("Unexpected params %+v", query)
	}
	base, query = ParseQuery("https://x.io")
	if base != "https://x.io" || query != nil {
		t.Errorf("Expected no params, got %q %+v", base, query)
	}
}
