// Package videourl classifies video platform URLs and extracts video IDs.
package videourl

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform identifies a supported video platform.
type Platform string

const (
	PlatformYoutube   Platform = "youtube"
	PlatformVimeo     Platform = "vimeo"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformUnknown   Platform = ""
)

// Result is the outcome of classifying a URL. Classification never fails
// with an error; anything unparseable or unsupported yields Valid=false.
type Result struct {
	Valid    bool
	Platform Platform
	VideoID  string
	Err      string
}

var vimeoIDPattern = regexp.MustCompile(`^\d+$`)

// Classify parses a raw URL and maps it to a platform and video ID.
func Classify(rawURL string) Result {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Result{Err: "invalid URL format"}
	}

	host := strings.ToLower(u.Hostname())
	segments := pathSegments(u.Path)

	switch {
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		var id string
		if strings.Contains(host, "youtu.be") {
			// Short format: youtu.be/VIDEO_ID
			if len(segments) > 0 {
				id = segments[0]
			}
		} else {
			id = u.Query().Get("v")
		}
		return platformResult(PlatformYoutube, id)

	case strings.Contains(host, "vimeo.com"):
		// vimeo.com/VIDEO_ID, numeric only
		if len(segments) > 0 && vimeoIDPattern.MatchString(segments[0]) {
			return platformResult(PlatformVimeo, segments[0])
		}
		return Result{}

	case strings.Contains(host, "tiktok.com"):
		// tiktok.com/@username/video/VIDEO_ID
		for i, seg := range segments {
			if seg == "video" && i+1 < len(segments) {
				return platformResult(PlatformTikTok, segments[i+1])
			}
		}
		return Result{}

	case strings.Contains(host, "instagram.com"):
		// instagram.com/p/CODE/ or instagram.com/reel/CODE/
		if len(segments) >= 2 && (segments[0] == "p" || segments[0] == "reel") {
			return platformResult(PlatformInstagram, segments[1])
		}
		return Result{}

	case strings.Contains(host, "fb.watch"):
		// Short link: the whole path is the ID
		return platformResult(PlatformFacebook, strings.Trim(u.Path, "/"))

	case strings.Contains(host, "facebook.com"):
		if idx := strings.Index(u.Path, "/videos/"); idx >= 0 {
			rest := pathSegments(u.Path[idx+len("/videos/"):])
			if len(rest) > 0 {
				return platformResult(PlatformFacebook, rest[0])
			}
		}
		return Result{}

	case strings.Contains(host, "twitter.com"), strings.Contains(host, "x.com"):
		// twitter.com/username/status/TWEET_ID
		if idx := strings.Index(u.Path, "/status/"); idx >= 0 {
			rest := pathSegments(u.Path[idx+len("/status/"):])
			if len(rest) > 0 {
				return platformResult(PlatformTwitter, rest[0])
			}
		}
		return Result{}
	}

	return Result{}
}

func platformResult(p Platform, id string) Result {
	if id == "" {
		return Result{}
	}
	return Result{Valid: true, Platform: p, VideoID: id}
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
