package media

import (
	"encoding/json"
)

// Codec is a codec identifier reported by yt-dlp. The literal "none" and
// null both mean the stream is absent and decode to the empty Codec.
type Codec string

// IsSet reports whether the codec names an actual stream.
func (c Codec) IsSet() bool {
	return c != ""
}

func (c *Codec) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "none" {
		*c = ""
		return nil
	}
	*c = Codec(*s)
	return nil
}

func (c Codec) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte(`"none"`), nil
	}
	return json.Marshal(string(c))
}

// Protocol is how a format is delivered.
type Protocol string

const (
	ProtocolHTTPS      Protocol = "https"
	ProtocolM3U8Native Protocol = "m3u8_native"
	ProtocolMHTML      Protocol = "mhtml"
)

// Extension is a file extension without the dot.
type Extension string

const (
	ExtM4A   Extension = "m4a"
	ExtMP4   Extension = "mp4"
	ExtWebM  Extension = "webm"
	ExtMHTML Extension = "mhtml"
	ExtNone  Extension = "none"
)

// Container is the DASH container of a format, when it has one.
type Container string

const (
	ContainerWebM Container = "webm_dash"
	ContainerM4A  Container = "m4a_dash"
	ContainerMP4  Container = "mp4_dash"
)

// DynamicRange classifies the video's dynamic range.
type DynamicRange string

const (
	DynamicRangeSDR DynamicRange = "SDR"
	DynamicRangeHDR DynamicRange = "HDR"
)

// FormatKind is the derived classification of a Format.
type FormatKind int

const (
	KindUnknown FormatKind = iota
	KindAudioOnly
	KindVideoOnly
	KindAudioAndVideo
	KindManifest
	KindStoryboard
)

func (k FormatKind) String() string {
	switch k {
	case KindAudioOnly:
		return "audio only"
	case KindVideoOnly:
		return "video only"
	case KindAudioAndVideo:
		return "audio and video"
	case KindManifest:
		return "manifest"
	case KindStoryboard:
		return "storyboard"
	default:
		return "unknown"
	}
}

// CodecInfo describes the encoded streams of a format.
type CodecInfo struct {
	ACodec        Codec     `json:"acodec"`
	VCodec        Codec     `json:"vcodec"`
	AudioExt      Extension `json:"audio_ext,omitempty"`
	VideoExt      Extension `json:"video_ext,omitempty"`
	AudioChannels *int64    `json:"audio_channels,omitempty"`
	// ASR is the audio sample rate in Hz.
	ASR *int64 `json:"asr,omitempty"`
}

// VideoResolution describes picture dimensions.
type VideoResolution struct {
	Width       *int64   `json:"width,omitempty"`
	Height      *int64   `json:"height,omitempty"`
	FPS         *float64 `json:"fps,omitempty"`
	Resolution  string   `json:"resolution,omitempty"`
	AspectRatio *float64 `json:"aspect_ratio,omitempty"`
}

// DownloaderOptions carries yt-dlp's download hints.
type DownloaderOptions struct {
	HTTPChunkSize int64 `json:"http_chunk_size"`
}

// DownloadInfo is what is needed to fetch the format.
type DownloadInfo struct {
	URL string    `json:"url"`
	Ext Extension `json:"ext"`
	// HTTPHeaders must accompany requests for URL.
	HTTPHeaders map[string]string `json:"http_headers,omitempty"`
	// ManifestURL is set for formats assembled from an adaptive manifest.
	ManifestURL       string             `json:"manifest_url,omitempty"`
	DownloaderOptions *DownloaderOptions `json:"downloader_options,omitempty"`
}

// QualityInfo holds yt-dlp's relative ranking of the format.
type QualityInfo struct {
	Quality      *float64     `json:"quality,omitempty"`
	DynamicRange DynamicRange `json:"dynamic_range,omitempty"`
}

// FileInfo holds the known or estimated size in bytes.
type FileInfo struct {
	FilesizeApprox *int64 `json:"filesize_approx,omitempty"`
	Filesize       *int64 `json:"filesize,omitempty"`
}

// Rates holds bitrates in KBit/s.
type Rates struct {
	VBR *float64 `json:"vbr,omitempty"`
	ABR *float64 `json:"abr,omitempty"`
	TBR *float64 `json:"tbr,omitempty"`
}

// Fragment is one image tile of a storyboard.
type Fragment struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

// StoryboardInfo describes a grid-of-thumbnails preview.
type StoryboardInfo struct {
	Rows      *int64     `json:"rows,omitempty"`
	Columns   *int64     `json:"columns,omitempty"`
	Fragments []Fragment `json:"fragments,omitempty"`
}

// Format is one encoded variant of a media item, decoded from yt-dlp's flat
// JSON. The embedded groups only organize the fields; they share a single
// JSON object.
type Format struct {
	Format     string    `json:"format"`
	FormatID   string    `json:"format_id"`
	FormatNote string    `json:"format_note,omitempty"`
	Protocol   Protocol  `json:"protocol,omitempty"`
	Language   *string   `json:"language,omitempty"`
	HasDRM     *bool     `json:"has_drm,omitempty"`
	Container  Container `json:"container,omitempty"`

	CodecInfo
	VideoResolution
	DownloadInfo
	QualityInfo
	FileInfo
	StoryboardInfo
	Rates
}

// Kind classifies the format. It is derived from the other fields on every
// call, so it cannot go stale. A manifest URL takes precedence over
// storyboard fragments, which take precedence over the codecs.
func (f *Format) Kind() FormatKind {
	if f.ManifestURL != "" {
		return KindManifest
	}
	if len(f.Fragments) > 0 {
		return KindStoryboard
	}

	audio, video := f.ACodec.IsSet(), f.VCodec.IsSet()
	switch {
	case audio && video:
		return KindAudioAndVideo
	case audio:
		return KindAudioOnly
	case video:
		return KindVideoOnly
	default:
		return KindUnknown
	}
}

// IsVideo reports whether the format carries a directly downloadable video stream.
func (f *Format) IsVideo() bool {
	k := f.Kind()
	return k == KindVideoOnly || k == KindAudioAndVideo
}

// IsAudio reports whether the format carries a directly downloadable audio stream.
func (f *Format) IsAudio() bool {
	k := f.Kind()
	return k == KindAudioOnly || k == KindAudioAndVideo
}

// FileExt returns the extension to store the format with, falling back to
// fallback when yt-dlp reports none.
func (f *Format) FileExt(fallback Extension) Extension {
	if f.Ext == "" || f.Ext == ExtNone {
		return fallback
	}
	return f.Ext
}
