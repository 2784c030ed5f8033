// Package media models the metadata yt-dlp reports for a single media item
// and selects the best or worst stream among its formats.
//
// A MediaItem is immutable once parsed and may be shared across goroutines.
// Selectors return pointers into the item's Formats slice; callers must not
// modify the pointed-to values.
package media

// Thumbnail is one thumbnail candidate.
type Thumbnail struct {
	URL        string `json:"url"`
	Preference int64  `json:"preference"`
	ID         string `json:"id"`
	Height     *int64 `json:"height,omitempty"`
	Width      *int64 `json:"width,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// CaptionExt is the file format of a caption track.
type CaptionExt string

const (
	CaptionJSON3 CaptionExt = "json3"
	CaptionSrv1  CaptionExt = "srv1"
	CaptionSrv2  CaptionExt = "srv2"
	CaptionSrv3  CaptionExt = "srv3"
	CaptionTTML  CaptionExt = "ttml"
	CaptionVTT   CaptionExt = "vtt"
)

// Caption is one caption track in a given file format.
type Caption struct {
	Ext  CaptionExt `json:"ext"`
	URL  string     `json:"url"`
	Name string     `json:"name,omitempty"`
}

// Version identifies the yt-dlp build that produced the metadata.
type Version struct {
	Version        string  `json:"version"`
	CurrentGitHead *string `json:"current_git_head"`
	ReleaseGitHead string  `json:"release_git_head"`
	Repository     string  `json:"repository"`
}

// MediaItem is the metadata document for one media item.
type MediaItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Thumbnail    string `json:"thumbnail"`
	Availability string `json:"availability"`
	// Timestamp is the upload time in Unix seconds.
	Timestamp  *int64   `json:"timestamp,omitempty"`
	UploadDate string   `json:"upload_date,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
	WebpageURL string   `json:"webpage_url,omitempty"`

	ViewCount    *int64 `json:"view_count,omitempty"`
	LikeCount    *int64 `json:"like_count,omitempty"`
	CommentCount *int64 `json:"comment_count,omitempty"`

	Channel              string `json:"channel"`
	ChannelID            string `json:"channel_id"`
	ChannelURL           string `json:"channel_url"`
	ChannelFollowerCount *int64 `json:"channel_follower_count,omitempty"`

	Formats           []Format             `json:"formats"`
	Thumbnails        []Thumbnail          `json:"thumbnails"`
	AutomaticCaptions map[string][]Caption `json:"automatic_captions,omitempty"`
	Subtitles         map[string][]Caption `json:"subtitles,omitempty"`

	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`

	AgeLimit        int64  `json:"age_limit"`
	HasDRM          *bool  `json:"_has_drm,omitempty"`
	LiveStatus      string `json:"live_status,omitempty"`
	PlayableInEmbed *bool  `json:"playable_in_embed,omitempty"`

	Extractor    string  `json:"extractor"`
	ExtractorKey string  `json:"extractor_key"`
	Type         string  `json:"_type,omitempty"`
	Version      Version `json:"_version"`
}

// BestVideoFormat returns the highest ranked video format, or nil.
func (m *MediaItem) BestVideoFormat() *Format {
	return Best(m.Formats, (*Format).IsVideo, CompareVideo)
}

// BestAudioFormat returns the highest ranked audio format, or nil.
func (m *MediaItem) BestAudioFormat() *Format {
	return Best(m.Formats, (*Format).IsAudio, CompareAudio)
}

// WorstVideoFormat returns the lowest ranked video format, or nil.
func (m *MediaItem) WorstVideoFormat() *Format {
	return Worst(m.Formats, (*Format).IsVideo, CompareVideo)
}

// WorstAudioFormat returns the lowest ranked audio format, or nil.
func (m *MediaItem) WorstAudioFormat() *Format {
	return Worst(m.Formats, (*Format).IsAudio, CompareAudio)
}

// BestThumbnail returns the thumbnail with the highest preference, the
// first one on ties, or nil when there are none.
func (m *MediaItem) BestThumbnail() *Thumbnail {
	var best *Thumbnail
	for i := range m.Thumbnails {
		t := &m.Thumbnails[i]
		if best == nil || t.Preference > best.Preference {
			best = t
		}
	}
	return best
}

// ThumbnailURL returns the URL of the best thumbnail, falling back to the
// item's main thumbnail field.
func (m *MediaItem) ThumbnailURL() string {
	if t := m.BestThumbnail(); t != nil && t.URL != "" {
		return t.URL
	}
	return m.Thumbnail
}
