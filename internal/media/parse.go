package media

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrDecode means the metadata is not a valid media document.
	ErrDecode = errors.New("decode media metadata")
	// ErrPlaylist means the metadata describes several items rather than one.
	ErrPlaylist = errors.New("metadata describes a playlist, not a single item")
)

// Parse decodes the output of `yt-dlp --dump-json` for a single item.
func Parse(data []byte) (*MediaItem, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}

	if !gjson.ValidBytes(data) {
		// A playlist dumps one document per entry.
		if docs := countDocuments(data); docs > 1 {
			return nil, fmt.Errorf("%w: got %d documents", ErrPlaylist, docs)
		}
		return nil, fmt.Errorf("%w: invalid JSON", ErrDecode)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: document is not an object", ErrDecode)
	}

	switch kind := root.Get("_type").String(); kind {
	case "playlist", "multi_video":
		return nil, fmt.Errorf("%w: _type %q", ErrPlaylist, kind)
	}

	var item MediaItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return &item, nil
}

// countDocuments returns the number of lines holding a valid JSON object.
func countDocuments(data []byte) int {
	count := 0
	gjson.ForEachLine(string(data), func(line gjson.Result) bool {
		if line.IsObject() {
			count++
		}
		return true
	})
	return count
}
