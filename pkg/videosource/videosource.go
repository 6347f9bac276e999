package videosource

import (
	"regexp"
	"strings"
)

type Source string

const (
	YouTube Source = "youtube"
	MP4     Source = "mp4"
	Unknown Source = "unknown"
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/.*[?&]v=([a-zA-Z0-9_-]{11})`),
}

// direct media files are played by the browser's <video> element
var directExtensions = []string{".mp4", ".webm", ".ogg"}

// Resolve classifies url into a playable source. For YouTube the ref is the 11 character
// video id, for everything else it is url unchanged.
func Resolve(url string) (Source, string) {
	if id, ok := YouTubeId(url); ok {
		return YouTube, id
	}

	lower := strings.ToLower(url)
	for _, ext := range directExtensions {
		if strings.HasSuffix(lower, ext) {
			return MP4, url
		}
	}

	return Unknown, url
}

// YouTubeId returns the video id of the first matching pattern.
func YouTubeId(url string) (string, bool) {
	for _, p := range youtubePatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}

	return "", false
}
