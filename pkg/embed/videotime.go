package embed

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const brightcovePlayerHost = "https://players.brightcove.net/"

var ErrInvalidTime = errors.New("invalid time")

var youtubeHosts = []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}

// IsYouTubeURL reports whether the URL points at a YouTube host.
func IsYouTubeURL(raw string) bool {
	for _, host := range youtubeHosts {
		if strings.Contains(raw, host) {
			return true
		}
	}
	return false
}

// ParseHMS converts "H:M:S", "M:S" or "S" into seconds. Each segment is
// weighted by its position counted from the right: value * 60^index.
// An empty string is zero.
func ParseHMS(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, errors.Wrapf(ErrInvalidTime, "%q", s)
	}
	total, weight := 0, 1
	for i := len(parts) - 1; i >= 0; i-- {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 {
			return 0, errors.Wrapf(ErrInvalidTime, "%q", s)
		}
		total += v * weight
		weight *= 60
	}
	return total, nil
}

// FormatHMS formats seconds as zero padded "HH:MM:SS".
func FormatHMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// AddYoutubeTimeStamps sets the "start" and "end" query parameters of an
// embed URL from H:M:S inputs. Zero or empty values are left out.
func AddYoutubeTimeStamps(rawURL, start, stop string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Del("start")
	q.Del("end")
	if sec, err := ParseHMS(start); err == nil && sec > 0 {
		q.Set("start", strconv.Itoa(sec))
	}
	if sec, err := ParseHMS(stop); err == nil && sec > 0 {
		q.Set("end", strconv.Itoa(sec))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// RemoveYoutubeTimeStamps strips the "start" and "end" query parameters.
func RemoveYoutubeTimeStamps(rawURL string) string {
	return AddYoutubeTimeStamps(rawURL, "", "")
}

// GetStartTime returns the "start" parameter of the URL as "HH:MM:SS",
// or an empty string when it is not set.
func GetStartTime(rawURL string) string {
	return queryTime(rawURL, "start")
}

// GetStopTime returns the "end" parameter of the URL as "HH:MM:SS",
// or an empty string when it is not set.
func GetStopTime(rawURL string) string {
	return queryTime(rawURL, "end")
}

func queryTime(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	v := u.Query().Get(key)
	if v == "" {
		return ""
	}
	sec, err := strconv.Atoi(v)
	if err != nil {
		return ""
	}
	return FormatHMS(sec)
}

var brightcoveTimeStampRe = regexp.MustCompile(`&t=(\d*)s?$`)

// RemoveBrightcoveTimeStamp strips the "&t={seconds}s" suffix from a video id.
func RemoveBrightcoveTimeStamp(videoid string) string {
	return brightcoveTimeStampRe.ReplaceAllString(videoid, "")
}

// AddBrightcoveTimeStampVideoid encodes the start time as a "&t={seconds}s"
// suffix on the video id. An empty or zero start time returns the base id.
func AddBrightcoveTimeStampVideoid(videoid, start string) string {
	base := RemoveBrightcoveTimeStamp(videoid)
	sec, err := ParseHMS(start)
	if err != nil || sec == 0 {
		return base
	}
	return fmt.Sprintf("%s&t=%ds", base, sec)
}

// GetBrightcoveStartTime decodes the "&t={seconds}s" suffix as "HH:MM:SS".
func GetBrightcoveStartTime(videoid string) string {
	m := brightcoveTimeStampRe.FindStringSubmatch(videoid)
	if m == nil || m[1] == "" {
		return ""
	}
	sec, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	return FormatHMS(sec)
}

// BrightcovePlayerURL returns the canonical playback URL of a brightcove embed.
// A fully-qualified player URL stored on the embed is passed through.
func BrightcovePlayerURL(d *BrightcoveEmbed) string {
	if strings.HasPrefix(d.URL, brightcovePlayerHost) {
		return d.URL
	}
	return fmt.Sprintf("%s%s/%s_default/index.html?videoId=%s", brightcovePlayerHost, d.Account, d.Player, d.VideoID)
}
