package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/ytwatch/internal/shared"
)

const playlistFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Road Trip</title>
 <yt:playlistId>PLroadtrip01</yt:playlistId>
 <entry>
  <id>yt:video:aaa111</id>
  <yt:videoId>aaa111</yt:videoId>
  <title>First Song</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=aaa111"/>
  <author><name>Band One</name></author>
  <published>2024-05-01T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>tag:other</id>
  <title>Second Song</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=bbb222"/>
  <published>2024-05-02T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>tag:none</id>
  <title>No Video</title>
 </entry>
</feed>`

func TestFeedService(t *testing.T) {
	newServer := func(status int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("playlist_id") != "PLroadtrip01" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/atom+xml")
			w.WriteHeader(status)
			if status == http.StatusOK {
				w.Write([]byte(playlistFeed))
			}
		}))
	}

	t.Run("ValidateCollection", func(t *testing.T) {
		server := newServer(http.StatusOK)
		defer server.Close()

		svc := NewFeedService(server.URL, nil, 0, 0, nil)
		title, err := svc.ValidateCollection(context.Background(), "PLroadtrip01")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if title != "Road Trip" {
			t.Errorf("expected Road Trip, got %q", title)
		}
	})

	t.Run("FetchItems", func(t *testing.T) {
		server := newServer(http.StatusOK)
		defer server.Close()

		svc := NewFeedService(server.URL, nil, 0, 0, nil)
		items, err := svc.FetchItems(context.Background(), "PLroadtrip01", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].ID != "aaa111" || items[0].Label != "Band One" || items[0].AddedAt.IsZero() {
			t.Errorf("unexpected first item %+v", items[0])
		}
		if items[1].ID != "bbb222" || items[1].Label != "Unknown" || items[1].Position != 1 {
			t.Errorf("unexpected second item %+v", items[1])
		}

		capped, _ := svc.FetchItems(context.Background(), "PLroadtrip01", 1)
		if len(capped) != 1 {
			t.Errorf("expected cap of 1, got %d", len(capped))
		}
	})

	t.Run("errors", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			id     string
			want   shared.ErrorKind
		}{
			{name: "unknown playlist", status: http.StatusOK, id: "PLmissing000", want: shared.KindNotFound},
			{name: "forbidden", status: http.StatusForbidden, id: "PLroadtrip01", want: shared.KindDenied},
			{name: "server error", status: http.StatusServiceUnavailable, id: "PLroadtrip01", want: shared.KindTransient},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				server := newServer(tt.status)
				defer server.Close()

				_, err := NewFeedService(server.URL, nil, 0, 0, nil).FetchItems(context.Background(), tt.id, 0)
				if got := shared.KindOf(err); got != tt.want {
					t.Errorf("expected %v, got %v (%v)", tt.want, got, err)
				}
			})
		}
	})
}
