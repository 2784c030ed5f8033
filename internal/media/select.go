package media

import (
	"cmp"

	"github.com/duke-git/lancet/v2/slice"
)

// Comparator orders two formats: negative when a ranks below b, zero when
// they are equivalent, positive when a ranks above b.
type Comparator func(a, b *Format) int

// Best returns the maximum of the formats accepted by keep, or nil when
// none are. Among equivalent maxima the first in list order wins.
func Best(formats []Format, keep func(*Format) bool, compare Comparator) *Format {
	return reduce(formats, keep, func(candidate, current *Format) bool {
		return compare(candidate, current) > 0
	})
}

// Worst returns the minimum of the formats accepted by keep, or nil when
// none are. Among equivalent minima the first in list order wins.
func Worst(formats []Format, keep func(*Format) bool, compare Comparator) *Format {
	return reduce(formats, keep, func(candidate, current *Format) bool {
		return compare(candidate, current) < 0
	})
}

// reduce keeps the current pick unless a later candidate strictly improves on it.
func reduce(formats []Format, keep func(*Format) bool, improves func(candidate, current *Format) bool) *Format {
	refs := make([]*Format, len(formats))
	for i := range formats {
		refs[i] = &formats[i]
	}

	candidates := slice.Filter(refs, func(_ int, f *Format) bool {
		return keep(f)
	})

	var pick *Format
	for _, f := range candidates {
		if pick == nil || improves(f, pick) {
			pick = f
		}
	}
	return pick
}

// CompareVideo ranks by quality, then height, then frame rate, then video
// bitrate. Missing values count as zero.
func CompareVideo(a, b *Format) int {
	return cmp.Or(
		cmp.Compare(valueOf(a.Quality), valueOf(b.Quality)),
		cmp.Compare(valueOf(a.Height), valueOf(b.Height)),
		cmp.Compare(valueOf(a.FPS), valueOf(b.FPS)),
		cmp.Compare(valueOf(a.VBR), valueOf(b.VBR)),
	)
}

// CompareAudio ranks by quality, then audio bitrate, then sample rate, then
// channel count. Missing values count as zero.
func CompareAudio(a, b *Format) int {
	return cmp.Or(
		cmp.Compare(valueOf(a.Quality), valueOf(b.Quality)),
		cmp.Compare(valueOf(a.ABR), valueOf(b.ABR)),
		cmp.Compare(valueOf(a.ASR), valueOf(b.ASR)),
		cmp.Compare(valueOf(a.AudioChannels), valueOf(b.AudioChannels)),
	)
}

func valueOf[T cmp.Ordered](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
