package parser

import (
	"context"
	"testing"
	"time"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/scanner"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <guid>item-1</guid>
      <title>Test Item</title>
      <link>https://example.com/item1</link>
      <description>&lt;p&gt;Test &lt;b&gt;description&lt;/b&gt;&lt;/p&gt;</description>
      <author>jane@example.com (Jane)</author>
      <category>ai</category>
      <category>research</category>
      <pubDate>Wed, 01 Jan 2025 12:00:00 GMT</pubDate>
    </item>
    <item>
      <link>https://example.com/item2</link>
    </item>
  </channel>
</rss>`

const sampleAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Releases</title>
  <entry>
    <id>tag:github.com,2008:Repository/1/v1.2.0</id>
    <title>v1.2.0</title>
    <link rel="alternate" href="https://github.com/acme/tool/releases/tag/v1.2.0"/>
    <updated>2025-02-03T04:05:06Z</updated>
    <author><name>octocat</name></author>
    <content type="html">&lt;ul&gt;&lt;li&gt;Faster builds&lt;/li&gt;&lt;/ul&gt;</content>
  </entry>
</feed>`

func TestFeedParserRSS(t *testing.T) {
	t.Parallel()

	p := NewFeedParser(fixedNow)
	items, err := p.Parse(context.Background(), scanner.Request{
		Feed: domain.Feed{ID: "blog"},
		Body: []byte(sampleRSS),
	})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "item-1" || first.Title != "Test Item" || first.URL != "https://example.com/item1" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.Body != "Test description" {
		t.Fatalf("expected html stripped, got %q", first.Body)
	}
	if first.Source != "blog" {
		t.Fatalf("unexpected source: %s", first.Source)
	}
	if want := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC); !first.PublishedAt.Equal(want) {
		t.Fatalf("unexpected date: %v", first.PublishedAt)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "ai" {
		t.Fatalf("unexpected tags: %v", first.Tags)
	}

	second := items[1]
	if second.ID != "blog_1" {
		t.Fatalf("expected positional id, got %s", second.ID)
	}
	if second.Title != "Untitled" {
		t.Fatalf("expected fallback title, got %s", second.Title)
	}
	if !second.PublishedAt.Equal(fixedNow()) {
		t.Fatalf("expected fallback date, got %v", second.PublishedAt)
	}
}

func TestFeedParserAtom(t *testing.T) {
	t.Parallel()

	p := NewFeedParser(fixedNow)
	items, err := p.Parse(context.Background(), scanner.Request{
		Feed: domain.Feed{ID: "releases"},
		Body: []byte(sampleAtom),
	})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Author != "octocat" {
		t.Fatalf("unexpected author: %s", item.Author)
	}
	if item.Body != "Faster builds" {
		t.Fatalf("unexpected body: %q", item.Body)
	}
	if want := time.Date(2025, time.February, 3, 4, 5, 6, 0, time.UTC); !item.PublishedAt.Equal(want) {
		t.Fatalf("expected updated date, got %v", item.PublishedAt)
	}
}

func TestFeedParserRejectsGarbage(t *testing.T) {
	t.Parallel()

	p := NewFeedParser(fixedNow)
	if _, err := p.Parse(context.Background(), scanner.Request{Body: []byte("Not valid XML or RSS")}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain   text\n here":                     "plain text here",
		"<p>Hello <em>world</em></p>":             "Hello world",
		"<div>a<script>alert(1)</script> b</div>": "a b",
		"Fish &amp; chips":                        "Fish & chips",
		"":                                        "",
	}
	for in, want := range tests {
		if got := htmlToText(in); got != want {
			t.Fatalf("htmlToText(%q) = %q, want %q", in, got, want)
		}
	}
}
