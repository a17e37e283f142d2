package watchpage

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vidmine/vidmine/internal/htmlutil"
	"github.com/vidmine/vidmine/types"
)

var (
	uploaderLinkRe = regexp.MustCompile(`<link itemprop="url" href="(https?://www\.youtube\.com/(?:user|channel)/([^"]+))">`)
	channelExtRe   = regexp.MustCompile(`data-channel-external-id=["']([^"']+)["']`)
	thumbRe        = regexp.MustCompile(`(?s)<span itemprop="thumbnail".*?href="(.*?)">`)
	eowDateRe      = regexp.MustCompile(`(?s)id="eow-date[^>]*>(.*?)</span>`)
	publishedOnRe  = regexp.MustCompile(`(?:id="watch-uploader-info"[^>]*>[^<]*|["']simpleText["']\s*:\s*["'])(?:Published|Uploaded|Streamed live|Started) on (.+?)["'<]`)
	licenseRe      = regexp.MustCompile(`(?s)<h4[^>]+class="title"[^>]*>\s*License\s*</h4>\s*<ul[^>]*>\s*<li>(.+?)</li`)
	musicRe        = regexp.MustCompile(`(?s)<h4[^>]+class="title"[^>]*>\s*Music\s*</h4>\s*<ul[^>]*>\s*<li>(.+?) by (.+?)</li`)
	episodeRe      = regexp.MustCompile(`<div[^>]+id="watch7-headline"[^>]*>\s*<span[^>]*>.*?>([^<]+)</a></b>\s*S(\d+)\s*•\s*E(\d+)</span>`)
	categoryBoxRe  = regexp.MustCompile(`(?s)<h4[^>]*>\s*Category\s*</h4>\s*<ul[^>]*>(.*?)</ul>`)
	anchorTextRe   = regexp.MustCompile(`(?s)<a[^<]+>(.*?)</a>`)
	videoTagRe     = regexp.MustCompile(`<meta\s+property="og:video:tag"[^>]*\bcontent="([^"]*)"`)
	viewCountRe    = regexp.MustCompile(`<[^>]+class=["']watch-view-count[^>]+>\s*([\d,\s]+)`)

	// Description anchors shortened with "..." hide the real target behind a
	// redirect; the title/href attribute carries the full URL.
	descAnchorRe = regexp.MustCompile(`(?s)<a\s+(?:[a-zA-Z-]+="[^"]*"\s+)*?(?:title|href)="([^"]+)"[^>]*>[^<]+\.{3}\s*</a>`)
	redirHostRe  = regexp.MustCompile(`^(?:www\.)?(?:youtube(?:-nocookie)?\.com|youtu\.be)$`)

	// Auto-generated music descriptions follow a fixed layout.
	providedToRe  = regexp.MustCompile(`Provided to YouTube by [^\n]+\n+([^·\n]+)·\s*([^\n]+)\n+([^\n]+)`)
	cleanArtistRe = regexp.MustCompile(`\nArtist\s*:\s*([^\n]+)`)
	releaseYearRe = regexp.MustCompile(`℗\s*(\d{4})`)
	releaseDateRe = regexp.MustCompile(`Released on\s*:\s*(\d{4}-\d{2}-\d{2})`)

	chapterSplitRe  = regexp.MustCompile(`<br\s*/?>`)
	chapterAnchorRe = regexp.MustCompile(`^[^<]*<a[^>]+onclick=["']yt\.www\.watch\.player\.seekTo[^>]+>(\d{1,2}:\d{1,2}(?::\d{1,2})?)</a>[^<]*$`)
	anchorStripRe   = regexp.MustCompile(`<a[^>]+>[^<]+</a>`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// assembleMetadata fills every descriptive field best-effort. A miss leaves
// the field zero, never fails the extraction.
func (e *Extractor) assembleMetadata(videoID, watchURL, page string, src *sources) *types.VideoInfo {
	detail := func(path string) string {
		return gjson.Get(src.playerResponse, "videoDetails."+path).String()
	}

	info := &types.VideoInfo{
		ID:         videoID,
		WebpageURL: siteBase + "/watch?v=" + videoID,
		IsLive:     src.isLive,
	}

	info.Title = first(src.vinfo["title"])
	if info.Title == "" {
		info.Title = detail("title")
	}
	if info.Title == "" {
		info.Title = "_"
	}

	descriptionHTML, _ := htmlutil.ElementByID("eow-description", page)
	if descriptionHTML != "" {
		descriptionHTML = rewriteRedirectLinks(descriptionHTML, watchURL)
		info.Description = htmlutil.CleanHTML(descriptionHTML)
	} else if meta, ok := htmlutil.SearchMeta("description", page); ok {
		info.Description = meta
	} else {
		info.Description = detail("shortDescription")
	}

	info.Uploader = first(src.vinfo["author"])
	if info.Uploader == "" {
		info.Uploader = detail("author")
	}
	if decoded, err := url.QueryUnescape(info.Uploader); err == nil {
		info.Uploader = decoded
	}

	if m := uploaderLinkRe.FindStringSubmatch(page); m != nil {
		info.UploaderURL = m[1]
		info.UploaderID = m[2]
	}

	info.ChannelID = detail("channelId")
	if info.ChannelID == "" {
		info.ChannelID, _ = htmlutil.SearchMeta("channelId", page)
	}
	if info.ChannelID == "" {
		if m := channelExtRe.FindStringSubmatch(page); m != nil {
			info.ChannelID = m[1]
		}
	}
	if info.ChannelID != "" {
		info.ChannelURL = siteBase + "/channel/" + info.ChannelID
	}

	if m := thumbRe.FindStringSubmatch(page); m != nil {
		info.Thumbnail = m[1]
	} else if t := first(src.vinfo["thumbnail_url"]); t != "" {
		if decoded, err := url.QueryUnescape(t); err == nil {
			info.Thumbnail = decoded
		}
	}

	info.UploadDate = mineUploadDate(page)
	info.License, _ = htmlutil.SearchRegex(licenseRe, page)

	if m := musicRe.FindStringSubmatch(page); m != nil {
		info.AltTitle = htmlutil.RemoveQuotes(htmlutil.UnescapeHTML(m[1]))
		info.Creator = htmlutil.CleanHTML(m[2])
	}
	info.Track, _ = htmlutil.SearchRegex(metaFieldRe("Song"), page)
	info.Artist, _ = htmlutil.SearchRegex(metaFieldRe("Artist"), page)
	info.Album, _ = htmlutil.SearchRegex(metaFieldRe("Album"), page)
	mineAutoGeneratedMusic(info)
	if info.Creator == "" {
		info.Creator = info.Artist
	}

	if m := episodeRe.FindStringSubmatch(page); m != nil {
		info.Series = htmlutil.UnescapeHTML(m[1])
		info.SeasonNumber = atoiSafe(m[2])
		info.EpisodeNumber = atoiSafe(m[3])
	}

	if box := categoryBoxRe.FindStringSubmatch(page); box != nil {
		if cat, ok := htmlutil.SearchRegex(anchorTextRe, box[1]); ok && cat != "" {
			info.Categories = []string{cat}
		}
	}
	for _, m := range videoTagRe.FindAllStringSubmatch(page, -1) {
		info.Tags = append(info.Tags, htmlutil.UnescapeHTML(m[1]))
	}

	info.LikeCount = mineCount(page, "like")
	info.DislikeCount = mineCount(page, "dislike")
	info.ViewCount = mineViewCount(page, src, detail)

	info.AverageRating = gjson.Get(src.playerResponse, "videoDetails.averageRating").Float()
	if info.AverageRating == 0 {
		info.AverageRating, _ = strconv.ParseFloat(first(src.vinfo["avg_rating"]), 64)
	}

	info.Duration = mineDuration(page, src, detail)
	if info.Duration > 0 {
		info.Chapters = extractChapters(descriptionHTML, info.Duration)
	}
	return info
}

func metaFieldRe(field string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<h4[^>]+class="title"[^>]*>\s*` + regexp.QuoteMeta(field) + `\s*</h4>\s*<ul[^>]*>\s*<li>(.+?)</li>\s*`)
}

// rewriteRedirectLinks replaces shortened description anchors with their
// real target, unwrapping the site's /redirect?q= indirection.
func rewriteRedirectLinks(descriptionHTML, watchURL string) string {
	base, err := url.Parse(watchURL)
	if err != nil {
		return descriptionHTML
	}
	return descAnchorRe.ReplaceAllStringFunc(descriptionHTML, func(anchor string) string {
		m := descAnchorRe.FindStringSubmatch(anchor)
		if m == nil {
			return anchor
		}
		ref, err := url.Parse(htmlutil.UnescapeHTML(m[1]))
		if err != nil {
			return anchor
		}
		target := base.ResolveReference(ref)
		if redirHostRe.MatchString(target.Host) && target.Path == "/redirect" {
			if q := target.Query().Get("q"); q != "" {
				return q
			}
		}
		return target.String()
	})
}

func mineUploadDate(page string) string {
	date, ok := htmlutil.SearchMeta("datePublished", page)
	if !ok || date == "" {
		date, ok = htmlutil.SearchRegex(eowDateRe, page)
		if !ok || date == "" {
			date, _ = htmlutil.SearchRegex(publishedOnRe, page)
		}
	}
	return htmlutil.UnifiedStrDate(date)
}

func mineAutoGeneratedMusic(info *types.VideoInfo) {
	desc := info.Description
	if !strings.Contains(desc, "Provided to YouTube by") {
		return
	}
	if m := providedToRe.FindStringSubmatch(desc); m != nil {
		if info.Track == "" {
			info.Track = strings.TrimSpace(m[1])
		}
		if info.Artist == "" {
			info.Artist = strings.TrimSpace(m[2])
		}
		if info.Album == "" {
			info.Album = strings.TrimSpace(m[3])
		}
	}
	if info.Artist == "" {
		if m := cleanArtistRe.FindStringSubmatch(desc); m != nil {
			info.Artist = strings.TrimSpace(m[1])
		}
	}
	if m := releaseYearRe.FindStringSubmatch(desc); m != nil {
		info.ReleaseYear = atoiSafe(m[1])
	}
	if m := releaseDateRe.FindStringSubmatch(desc); m != nil {
		info.ReleaseDate = strings.ReplaceAll(m[1], "-", "")
		if info.ReleaseYear == 0 {
			info.ReleaseYear = atoiSafe(m[1][:4])
		}
	}
}

func mineCount(page, name string) int64 {
	re := regexp.MustCompile(`-` + regexp.QuoteMeta(name) + `-button[^>]+><span[^>]+class="yt-uix-button-content"[^>]*>([\d,]+)</span>`)
	m := re.FindStringSubmatch(page)
	if m == nil {
		return 0
	}
	return parseCount(m[1])
}

func mineViewCount(page string, src *sources, detail func(string) string) int64 {
	if v := parseCount(first(src.vinfo["view_count"])); v > 0 {
		return v
	}
	if v := parseCount(detail("viewCount")); v > 0 {
		return v
	}
	if m := viewCountRe.FindStringSubmatch(page); m != nil {
		return parseCount(m[1])
	}
	return 0
}

func mineDuration(page string, src *sources, detail func(string) string) float64 {
	if v, err := strconv.ParseFloat(first(src.vinfo["length_seconds"]), 64); err == nil && v > 0 {
		return v
	}
	if v, err := strconv.ParseFloat(detail("lengthSeconds"), 64); err == nil && v > 0 {
		return v
	}
	if meta, ok := htmlutil.SearchMeta("duration", page); ok {
		if v, ok := htmlutil.ParseDuration(meta); ok {
			return v
		}
	}
	return 0
}

// extractChapters reads the description's seekTo anchors. Each anchor line
// becomes a chapter running until the next anchor's timestamp, the last one
// until the end of the video.
func extractChapters(descriptionHTML string, duration float64) []types.Chapter {
	if descriptionHTML == "" {
		return nil
	}
	type mark struct {
		line  string
		start float64
	}
	var marks []mark
	for _, line := range chapterSplitRe.Split(descriptionHTML, -1) {
		m := chapterAnchorRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		start, ok := htmlutil.ParseDuration(m[1])
		if !ok {
			continue
		}
		marks = append(marks, mark{line: line, start: start})
	}

	var chapters []types.Chapter
	for i, mk := range marks {
		if mk.start > duration {
			break
		}
		end := duration
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		if end > duration {
			end = duration
		}
		if mk.start > end {
			break
		}
		title := anchorStripRe.ReplaceAllString(mk.line, "")
		title = strings.Trim(title, " \t-")
		title = spaceRunRe.ReplaceAllString(htmlutil.UnescapeHTML(title), " ")
		chapters = append(chapters, types.Chapter{
			StartTime: mk.start,
			EndTime:   end,
			Title:     strings.TrimSpace(title),
		})
	}
	return chapters
}

func parseCount(s string) int64 {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, ",", ""), " ", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func atoiSafe(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
