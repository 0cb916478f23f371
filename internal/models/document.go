// Package models defines core data structures for documents, search
// requests, results, and engine statistics.
package models

import (
	"strings"
	"time"
)

// Metadata keys the engine itself reads. All other keys are carried
// through opaquely.
const (
	MetaTitle = "title"
	MetaTags  = "tags"
)

// Document is a text document handed to the engine for organization.
// The canonical document object is owned by the caller; the engine keeps
// the ID, the indexed form of the content, and a copy of the metadata.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// DocumentInput is the input for creating or updating a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MetadataString returns the string value stored under key, or "" when
// the key is missing or not a string.
func MetadataString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

// MetadataTags returns the tag names stored under the "tags" key.
// Accepts []string, []interface{} of strings, or a single
// comma-separated string; anything else yields nil. Names are trimmed
// and empty entries dropped.
func MetadataTags(meta map[string]interface{}) []string {
	if meta == nil {
		return nil
	}
	switch v := meta[MetaTags].(type) {
	case []string:
		return cleanTags(v)
	case []interface{}:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return cleanTags(tags)
	case string:
		return cleanTags(strings.Split(v, ","))
	default:
		return nil
	}
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// CloneMetadata returns a shallow copy of meta ([]string tag lists are
// copied too so callers cannot mutate stored state through them).
func CloneMetadata(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if list, ok := v.([]string); ok {
			out[k] = append([]string(nil), list...)
			continue
		}
		out[k] = v
	}
	return out
}
