package core

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		url string
		key string
		ok  bool
	}{
		{url: "https://google.com/search", key: "google.com", ok: true},
		{url: "https://www.example.com/a", key: "example.com", ok: true},
		{url: "http://www.example.com:8080/a?b=c#d", key: "example.com", ok: true},
		{url: "https://sub.www.example.com/", key: "sub.www.example.com", ok: true},
		{url: "https://www.www.example.com/", key: "www.example.com", ok: true},
		{url: "https://WWW.Example.COM/", key: "example.com", ok: true},
		{url: "https://wwwexample.com/", key: "wwwexample.com", ok: true},
		{url: "http://[::1]:3000/", key: "::1", ok: true},
		{url: "https://bücher.de/", key: "xn--bcher-kva.de", ok: true},
		{url: "https://www.BÜCHER.de/katalog", key: "xn--bcher-kva.de", ok: true},
		{url: "https://xn--bcher-kva.de/", key: "xn--bcher-kva.de", ok: true},
		{url: "chrome://extensions/", key: "extensions", ok: true},
		{url: "about:blank", ok: false},
		{url: "file:///tmp/x.html", ok: false},
		{url: "not a url", ok: false},
		{url: "http://[::1", ok: false},
		{url: "", ok: false},
	}
	for _, tc := range cases {
		key, ok := Classify(tc.url)
		if ok != tc.ok || string(key) != tc.key {
			t.Fatalf("classify %q: expected (%q, %v), got (%q, %v)", tc.url, tc.key, tc.ok, key, ok)
		}
	}
}

func TestClassifyIsIdempotentOnOwnHost(t *testing.T) {
	urls := []string{
		"https://www.example.com/a",
		"https://google.com/search",
		"https://docs.www.example.org/",
		"http://news.ycombinator.com:443/item?id=1",
	}
	for _, u := range urls {
		key, ok := Classify(u)
		if !ok {
			t.Fatalf("classify %q failed", u)
		}
		again, ok := Classify("https://" + string(key) + "/")
		if !ok || again != key {
			t.Fatalf("classify %q not idempotent: %q then %q", u, key, again)
		}
	}
}

func TestIsValidTabURL(t *testing.T) {
	cases := map[string]bool{
		"":                         false,
		"chrome://newtab/":         false,
		"https://example.com/":     true,
		"http://example.com/a?b=c": true,
		"chrome://extensions/":     true,
	}
	for url, want := range cases {
		if got := IsValidTabURL(url); got != want {
			t.Fatalf("IsValidTabURL(%q): expected %v, got %v", url, want, got)
		}
	}
}
