package courier

import (
	"net/http"
	"reflect"
	"testing"
)

func TestDescriptorURL(t *testing.T) {
	tests := []struct {
		name string
		host string
		path string
		want string
	}{
		{"host and path", "https://api.example.com", "/login", "https://api.example.com/login"},
		{"empty path", "https://api.example.com", "", "https://api.example.com"},
		{"duplicate slashes are not normalized", "https://api.example.com/", "/login", "https://api.example.com//login"},
		{"missing slash is not inserted", "https://api.example.com", "login", "https://api.example.comlogin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDescriptor(http.MethodGet, tt.host, tt.path)
			if got := d.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeQueryLastWriteWins(t *testing.T) {
	d := NewDescriptor(http.MethodGet, "https://api.example.com", "/items")
	d.MergeQuery(Params{"a": 1})
	d.MergeQuery(Params{"a": 2})

	if !reflect.DeepEqual(d.Query, Params{"a": 2}) {
		t.Errorf("expected {a:2}, got %v", d.Query)
	}
}

func TestMergeQueryIdempotent(t *testing.T) {
	d := NewDescriptor(http.MethodGet, "https://api.example.com", "/items")
	d.MergeQuery(Params{"a": 1, "b": "x"})
	d.MergeQuery(Params{"a": 1, "b": "x"})

	if !reflect.DeepEqual(d.Query, Params{"a": 1, "b": "x"}) {
		t.Errorf("expected {a:1 b:x}, got %v", d.Query)
	}
}

func TestMergeBodyInitializesBody(t *testing.T) {
	d := NewDescriptor(http.MethodPost, "https://api.example.com", "/items")
	if d.HasBody() {
		t.Fatal("expected no body on a fresh descriptor")
	}

	d.MergeBody(Params{"user": "a"})
	if !d.HasBody() {
		t.Fatal("expected body after MergeBody")
	}
	d.MergeBody(Params{"user": "b", "pass": "c"})
	if !reflect.DeepEqual(d.Body, Params{"user": "b", "pass": "c"}) {
		t.Errorf("expected merged body, got %v", d.Body)
	}
}

func TestMergeHeaders(t *testing.T) {
	d := &Descriptor{Host: "https://api.example.com", Method: http.MethodGet}
	d.MergeHeaders(Headers{"Accept": "application/json"})
	d.MergeHeaders(Headers{"Accept": "text/plain", "X-Custom": "1"})

	want := Headers{"Accept": "text/plain", "X-Custom": "1"}
	if !reflect.DeepEqual(d.Headers, want) {
		t.Errorf("expected %v, got %v", want, d.Headers)
	}
}

func TestEffectiveParamsBodyTakesPrecedence(t *testing.T) {
	d := NewDescriptor(http.MethodPost, "https://api.example.com", "/items")
	d.MergeQuery(Params{"q": "ignored"})

	if got := d.EffectiveParams(); !reflect.DeepEqual(got, Params{"q": "ignored"}) {
		t.Errorf("expected query params before body exists, got %v", got)
	}

	d.MergeBody(Params{"user": "a"})
	if got := d.EffectiveParams(); !reflect.DeepEqual(got, Params{"user": "a"}) {
		t.Errorf("expected body params once body exists, got %v", got)
	}
}

func TestEffectiveParamsEmptyBodyStillWins(t *testing.T) {
	d := NewDescriptor(http.MethodPost, "https://api.example.com", "/items")
	d.MergeQuery(Params{"q": "ignored"})
	d.Body = Params{}

	if got := d.EffectiveParams(); len(got) != 0 {
		t.Errorf("expected empty body params, got %v", got)
	}
}
