package serp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckRankingWithoutAPIKey(t *testing.T) {
	_, _, err := New("http://127.0.0.1:0", "", time.Second).CheckRanking(context.Background(), "acme", "us", 10)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCheckRanking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search" || q.Get("q") != "acme" || q.Get("num") != "10" || q.Get("gl") != "gb" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"organic_results":[
			{"position":1,"link":"https://www.acme.co.uk/","domain":"acme.co.uk"},
			{"link":"https://en.wikipedia.org/wiki/Acme"},
			{"position":12,"link":"https://deep.example.com/"}
		],"credits_used":1}`))
	}))
	defer srv.Close()

	rankings, usage, err := New(srv.URL, "secret", time.Second).CheckRanking(context.Background(), "acme", "GB", 10)
	if err != nil {
		t.Fatalf("CheckRanking: %v", err)
	}
	if len(rankings) != 2 {
		t.Fatalf("expected 2 rankings within top 10, got %+v", rankings)
	}
	if rankings[0].Domain != "acme.co.uk" || rankings[1].Position != 2 {
		t.Errorf("unexpected rankings %+v", rankings)
	}
	if usage.Calls != 1 || usage.Credits != 1 {
		t.Errorf("unexpected usage %+v", usage)
	}
}

func TestCheckRankingContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := New(srv.URL, "secret", 5*time.Second).CheckRanking(ctx, "acme", "us", 10); err == nil {
		t.Fatal("expected an error when the context expires")
	}
}
