package markdown_test

import (
	"testing"

	"github.com/goliatone/go-lodge-cms/internal/markdown"
)

const cabinsSource = `---
slug: cabins
title: Our Cabins
template: landing
priority: 2
publish: true
blocks:
  - type: hero-image
    payload:
      title: Cabins by the lake
      imageSrc: media/cabins.jpg
  - type: faq
    payload:
      entries:
        - question: Are pets allowed?
          answer: Yes, in the **east** cabins.
---

Every cabin has a wood stove.
`

func TestParseDocumentReadsFrontMatter(t *testing.T) {
	doc, err := markdown.ParseDocument("cabins.md", []byte(cabinsSource))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Slug != "cabins" || doc.Name != "Our Cabins" || doc.Template != "landing" || doc.Priority != 2 || !doc.Publish {
		t.Fatalf("unexpected metadata %+v", doc)
	}
	if len(doc.Blocks) != 2 || doc.Blocks[1].Type != "faq" {
		t.Fatalf("unexpected blocks %+v", doc.Blocks)
	}
	entries, ok := doc.Blocks[1].Payload["entries"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected entries list, got %T", doc.Blocks[1].Payload["entries"])
	}
	entry, ok := entries[0].(map[string]any)
	if !ok || entry["question"] != "Are pets allowed?" {
		t.Fatalf("expected nested entries to decode as string maps, got %#v", entries[0])
	}
	if string(doc.Body) != "Every cabin has a wood stove." {
		t.Fatalf("unexpected body %q", doc.Body)
	}
}

func TestParseDocumentFallsBackToFileName(t *testing.T) {
	doc, err := markdown.ParseDocument("guides/getting-here.md", []byte("---\nname: Getting here\n---\nTake the ferry.\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Slug != "getting-here" {
		t.Fatalf("expected slug from file name, got %q", doc.Slug)
	}
}

func TestParseDocumentRejectsBrokenYAML(t *testing.T) {
	if _, err := markdown.ParseDocument("broken.md", []byte("---\nblocks: [\n---\nbody\n")); err == nil {
		t.Fatal("expected parse error")
	}
}
