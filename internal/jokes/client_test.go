package jokes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchRandom(t *testing.T) {
	t.Run("flattens a single joke", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/joke/Any" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if _, ok := r.URL.Query()["safe-mode"]; !ok {
				t.Error("expected safe-mode query parameter")
			}
			w.Write([]byte(`{"error":false,"type":"single","joke":"A joke.","category":"Pun"}`))
		}))
		defer server.Close()

		joke, err := NewClient(server.URL).FetchRandom(context.Background())
		if err != nil {
			t.Fatalf("FetchRandom returned error: %v", err)
		}
		if joke.Text != "A joke." {
			t.Fatalf("joke text = %q", joke.Text)
		}
		if joke.Category != "Pun" {
			t.Fatalf("joke category = %q", joke.Category)
		}
	})

	t.Run("joins a twopart joke with a blank line", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":false,"type":"twopart","setup":"Setup?","delivery":"Punchline.","category":"Misc"}`))
		}))
		defer server.Close()

		joke, err := NewClient(server.URL).FetchRandom(context.Background())
		if err != nil {
			t.Fatalf("FetchRandom returned error: %v", err)
		}
		if joke.Text != "Setup?\n\nPunchline." {
			t.Fatalf("joke text = %q", joke.Text)
		}
	})

	t.Run("propagates API error payloads", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":true}`))
		}))
		defer server.Close()

		if _, err := NewClient(server.URL).FetchRandom(context.Background()); err == nil {
			t.Fatal("expected error for error payload")
		}
	})

	t.Run("rejects non-200 responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		if _, err := NewClient(server.URL).FetchRandom(context.Background()); err == nil {
			t.Fatal("expected error for bad status")
		}
	})
}
