package extract

import (
	"bufio"
	"strings"
)

// MetadataScanner derives metadata from document content itself: a
// leading front-matter block and, failing a title there, the first
// Markdown heading.
//
//	---
//	title: Notes on Go
//	tags: [go, notes]
//	author: alice
//	---
//
// Values stay strings except tags, which become a []string from either
// the bracketed or the bare comma-separated form. Malformed front
// matter is skipped rather than failed: inline metadata is a bonus,
// never a reason to reject a document.
type MetadataScanner struct{}

// NewMetadataScanner returns a new MetadataScanner.
func NewMetadataScanner() *MetadataScanner {
	return &MetadataScanner{}
}

const frontMatterFence = "---"

// ExtractMetadata scans content for front matter and a heading title.
// The returned map may be empty, never nil; the error is always nil and
// exists to satisfy the engine's extractor interface.
func (s *MetadataScanner) ExtractMetadata(content string) (map[string]interface{}, error) {
	meta := map[string]interface{}{}
	rest := content
	if block, after, ok := frontMatter(content); ok {
		parseFrontMatter(block, meta)
		rest = after
	}
	if _, ok := meta["title"]; !ok {
		if title := headingTitle(rest); title != "" {
			meta["title"] = title
		}
	}
	return meta, nil
}

// frontMatter splits a leading fence-delimited block from content. An
// unterminated opening fence is not front matter.
func frontMatter(content string) (block, rest string, ok bool) {
	body := strings.TrimPrefix(content, "﻿")
	firstEnd := strings.IndexByte(body, '\n')
	if firstEnd < 0 || strings.TrimSpace(body[:firstEnd]) != frontMatterFence {
		return "", content, false
	}
	inner := body[firstEnd+1:]
	for offset := 0; offset < len(inner); {
		var line string
		next := len(inner)
		if lineEnd := strings.IndexByte(inner[offset:], '\n'); lineEnd >= 0 {
			line = inner[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		} else {
			line = inner[offset:]
		}
		if strings.TrimSpace(line) == frontMatterFence {
			return inner[:offset], inner[next:], true
		}
		offset = next
	}
	return "", content, false
}

func parseFrontMatter(block string, meta map[string]interface{}) {
	sc := bufio.NewScanner(strings.NewReader(block))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if key == "tags" {
			meta[key] = splitTagList(value)
			continue
		}
		meta[key] = strings.Trim(value, `"'`)
	}
}

// splitTagList accepts "[go, web]" and "go, web" alike.
func splitTagList(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), `"'`); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// headingTitle returns the first line's Markdown H1 text, if the first
// non-blank line is a heading.
func headingTitle(content string) string {
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if after, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}
	return ""
}
