package summarizer

import (
	"fmt"
	"net/url"
	"strings"
)

// videoIDLength is the fixed length of a YouTube video id.
const videoIDLength = 11

// VideoID extracts the video id from the YouTube link shapes users paste:
// watch URLs, short youtu.be links, shorts and embeds.
func VideoID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLink, link)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string

	switch host {
	case "youtu.be":
		id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/shorts/"), "/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/embed/"), "/")
		case strings.HasPrefix(u.Path, "/live/"):
			id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/live/"), "/")
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLink, link)
	}

	if !validVideoID(id) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLink, link)
	}
	return id, nil
}

// IsVideoLink reports whether the text looks like a summarizable link.
func IsVideoLink(text string) bool {
	_, err := VideoID(text)
	return err == nil
}

func validVideoID(id string) bool {
	if len(id) != videoIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
