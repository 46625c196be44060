package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newFetcher() *Fetcher {
	return NewFetcher(5*time.Second, "Veracity/0.1", 0, "", "", "")
}

func TestTitle_ExtractsPageTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
		default:
			_, _ = w.Write([]byte(`<html><head><title> Source Page </title></head><body></body></html>`))
		}
	}))
	defer server.Close()

	got := newFetcher().Title(context.Background(), server.URL+"/article")
	if got != "Source Page" {
		t.Errorf("Expected trimmed title, got %q", got)
	}
}

func TestTitle_RespectsRobotsDisallow(t *testing.T) {
	var pageFetched bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		default:
			pageFetched = true
			_, _ = w.Write([]byte(`<html><head><title>Secret</title></head></html>`))
		}
	}))
	defer server.Close()

	got := newFetcher().Title(context.Background(), server.URL+"/private/doc")
	if got != "" {
		t.Errorf("Expected empty title for disallowed path, got %q", got)
	}
	if pageFetched {
		t.Error("Expected disallowed page not to be fetched")
	}
}

func TestTitle_SoftFailures(t *testing.T) {
	// Unreachable host
	if got := newFetcher().Title(context.Background(), "http://127.0.0.1:0/x"); got != "" {
		t.Errorf("Expected empty title for unreachable host, got %q", got)
	}

	// Garbage URL
	if got := newFetcher().Title(context.Background(), "::not a url::"); got != "" {
		t.Errorf("Expected empty title for bad URL, got %q", got)
	}

	// Non-2xx response
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if got := newFetcher().Title(context.Background(), server.URL+"/gone"); got != "" {
		t.Errorf("Expected empty title for 404, got %q", got)
	}
}

func TestTitle_RobotsCachedPerHost(t *testing.T) {
	robotsHits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits++
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		}
		_, _ = w.Write([]byte(`<html><head><title>T</title></head></html>`))
	}))
	defer server.Close()

	f := newFetcher()
	f.Title(context.Background(), server.URL+"/a")
	f.Title(context.Background(), server.URL+"/b")

	if robotsHits != 1 {
		t.Errorf("Expected robots.txt fetched once per host, got %d", robotsHits)
	}
}
