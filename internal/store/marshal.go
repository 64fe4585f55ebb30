package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ultistats/internal/event"
)

// marshalTags stores the tag set as a JSON array. The set is normalized first
// so the column is stable across devices.
func marshalTags(tags []string) (string, error) {
	norm := event.NormalizeTags(tags)
	if norm == nil {
		return "[]", nil
	}
	data, err := json.Marshal(norm)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(data), nil
}

func marshalComments(comments []event.Comment) (string, error) {
	if len(comments) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(comments)
	if err != nil {
		return "", fmt.Errorf("marshal comments: %w", err)
	}
	return string(data), nil
}

// unmarshalTags returns nil for an empty set, matching event.NormalizeTags.
func unmarshalTags(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return tags, nil
}

func unmarshalComments(data string) ([]event.Comment, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var comments []event.Comment
	if err := json.Unmarshal([]byte(data), &comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	return comments, nil
}
