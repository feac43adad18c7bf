// Package media derives search hints from media file names.
package media

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	videoRe = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|mpeg|mpg|m4v|3gp|vob|ts|mts|m2ts|rmvb|divx)$`)

	// S01E02, s1e2, S01.E02 and 1x02
	seasonEpisodeRe = regexp.MustCompile(`(?i)(?:^|[\s._\-\[(])(?:s(\d{1,2})[\s._-]?e(\d{1,3})|(\d{1,2})x(\d{2,3}))(?:[^\d]|$)`)

	yearRangeRe = regexp.MustCompile(`(?:^|[^\d])((19|20)\d{2})(?:[\s\-–—]+(?:19|20)\d{2})?(?:[^\d]|$)`)

	encodingTagsRe = regexp.MustCompile(`(?i)\b(?:HD|HDR|DV|x265|x264|H\.?264|H\.?265|HEVC|AVC|AAC|AC3|DD|DTS|FLAC|MP3|WEB-?DL|WEBRip|BluRay|BDRip|DVDRip|HDTV|720p|1080p|2160p|4K|UHD|SDR|10bit|8bit|PROPER|REPACK|iNTERNAL|LiMiTED|UNRATED|EXTENDED|DiRECTORS?\.?CUT|THEATRICAL|COMPLETE|MULTI|DUAL|DUBBED|SUBBED|RETAIL|REMUX)\b`)

	emptyBracketsRe = regexp.MustCompile(`\s*[\(\[\{<]\s*[\)\]\}>]`)
)

// FileName is what a media file name says about its content.
type FileName struct {
	Title   string
	Year    int
	Season  int
	Episode int
}

// IsEpisode reports whether the name carried a season and episode marker.
func (f FileName) IsEpisode() bool {
	return f.Episode > 0
}

// IsVideo checks if the filename has a video extension
func IsVideo(filename string) bool {
	return videoRe.MatchString(filename)
}

// ParseFileName reads the title, year and episode marker from the last
// element of path. Everything from the episode marker or the year onwards is
// dropped from the title, as are release tags like 1080p or x264.
func ParseFileName(path string) FileName {
	name := filepath.Base(path)
	if IsVideo(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	var info FileName
	if m := seasonEpisodeRe.FindStringSubmatchIndex(name); m != nil {
		season, episode := submatch(name, m, 2), submatch(name, m, 4)
		if episode == 0 {
			season, episode = submatch(name, m, 6), submatch(name, m, 8)
		}
		info.Season, info.Episode = season, episode
		name = name[:m[0]]
	}

	info.Title, info.Year = ExtractNameAndYear(name)
	return info
}

// submatch converts the capture group starting at index i of m.
func submatch(s string, m []int, i int) int {
	if m[i] < 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[m[i]:m[i+1]])
	return n
}

// ExtractNameAndYear cleans a name and splits off the first year in it.
func ExtractNameAndYear(name string) (string, int) {
	if name == "" {
		return name, 0
	}

	formatted := name
	year := 0

	if m := yearRangeRe.FindStringSubmatch(formatted); len(m) > 1 {
		year, _ = strconv.Atoi(m[1])

		// Keep only the part before the year
		if i := strings.Index(formatted, m[1]); i != -1 {
			formatted = strings.TrimRight(formatted[:i], " ([{-_.")
		}
	}

	// Replace separators with spaces
	formatted = strings.NewReplacer(".", " ", "_", " ").Replace(formatted)

	formatted = encodingTagsRe.ReplaceAllString(formatted, "")
	formatted = emptyBracketsRe.ReplaceAllString(formatted, "")

	// Clean up extra spaces and stray separators
	formatted = strings.Join(strings.Fields(formatted), " ")
	formatted = strings.Trim(formatted, "-–—|: ")

	return strings.TrimSpace(formatted), year
}
