// Package watchpage drives a full extraction: it downloads the watch page,
// detects the age-gate and embedded-config scenarios, mines the player
// response and legacy video-info maps, reconciles every format source and
// assembles the metadata record. Format resolution is hard-failing; every
// descriptive field fails soft.
package watchpage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vidmine/vidmine/errs"
	"github.com/vidmine/vidmine/internal/fetch"
	"github.com/vidmine/vidmine/internal/htmlutil"
	"github.com/vidmine/vidmine/internal/logger"
	"github.com/vidmine/vidmine/types"
	"github.com/vidmine/vidmine/youtube/formats"
)

const siteBase = "https://www.youtube.com"

var (
	videoIDRe  = regexp.MustCompile(`(?:v=|youtu\.be/|/embed/|/v/|/shorts/)([0-9A-Za-z_-]{11})`)
	stsRe      = regexp.MustCompile(`"sts"\s*:\s*(\d+)`)
	assetsJSRe = regexp.MustCompile(`"assets":.+?"js":\s*"([^"]+)"`)
	// ytplayer.config is tried with the tighter terminator first.
	playerCfgRes = []*regexp.Regexp{
		regexp.MustCompile(`;ytplayer\.config\s*=\s*(\{.+?\});ytplayer`),
		regexp.MustCompile(`;ytplayer\.config\s*=\s*(\{.+?\});`),
	}
	stretchRe = regexp.MustCompile(`<meta\s+property="og:video:tag".*?content="yt:stretch=([0-9]+):([0-9]+)">`)
)

// Extractor performs watch-page extractions.
type Extractor struct {
	fetcher  fetch.Fetcher
	resolver *formats.Resolver
	log      *logger.ComponentLogger
}

// New creates an Extractor. The resolver handles format reconciliation and
// signature work; the fetcher downloads pages and video-info documents.
func New(fetcher fetch.Fetcher, resolver *formats.Resolver) *Extractor {
	return &Extractor{
		fetcher:  fetcher,
		resolver: resolver,
		log:      logger.WithComponent(logger.ComponentPage),
	}
}

// VideoID extracts the 11-character video identifier from any of the known
// page URL shapes.
func VideoID(pageURL string) (string, error) {
	if m := videoIDRe.FindStringSubmatch(pageURL); m != nil {
		return m[1], nil
	}
	return "", errs.PatternMiss("video id in page URL")
}

// Extract resolves everything the watch page offers for one video.
func (e *Extractor) Extract(pageURL string) (*types.VideoInfo, error) {
	videoID, err := VideoID(pageURL)
	if err != nil {
		return nil, err
	}
	watchURL := fmt.Sprintf("%s/watch?v=%s&gl=US&hl=en&has_verified=1&bpctr=9999999999", siteBase, videoID)

	page, err := e.fetcher.Text(watchURL)
	if err != nil {
		return nil, errs.Unavailable("failed to download watch page: " + err.Error())
	}

	src, err := e.collectSources(videoID, page)
	if err != nil {
		return nil, err
	}

	if len(src.vinfo["ypc_video_rental_bar_text"]) > 0 && len(src.vinfo["author"]) == 0 {
		return nil, errs.ErrRentalOnly
	}

	reason := e.unavailableReason(page, src)
	list, err := e.resolver.Reconcile(formats.Input{
		PlayerResponseJSON: src.playerResponse,
		VideoInfo:          src.vinfo,
		PlayerURL:          src.playerURL,
		IsLive:             src.isLive,
		UnavailableReason:  reason,
	})
	if err != nil {
		return nil, classifyUnavailable(err, reason)
	}

	info := e.assembleMetadata(videoID, watchURL, page, src)
	applyStretchedRatio(page, list)
	info.Formats = list
	if src.ageGate {
		info.AgeLimit = 18
	}
	e.log.Info("extraction complete", map[string]interface{}{
		"id":      videoID,
		"formats": len(list),
		"live":    src.isLive,
	})
	return info, nil
}

// sources is everything mined from the page and its fallbacks that the
// format pipeline needs.
type sources struct {
	vinfo          map[string][]string
	playerResponse string
	playerURL      string
	isLive         bool
	ageGate        bool
}

// collectSources walks the three scenarios: age-gated videos go through the
// embed page plus get_video_info, regular pages carry ytplayer.config, and
// pages without either fall back to the get_video_info el-variant walk.
func (e *Extractor) collectSources(videoID, page string) (*sources, error) {
	src := &sources{}

	src.playerURL = mineAssetsJS(page)

	if strings.Contains(page, `player-age-gate-content">`) {
		src.ageGate = true
		e.collectAgeGated(videoID, src)
	} else {
		sts := e.collectFromConfig(videoID, page, src)
		if len(src.vinfo) == 0 {
			e.walkVideoInfo(videoID, sts, src)
		}
	}

	if len(src.vinfo) == 0 && src.playerResponse == "" {
		msg := unavailableMessage(page)
		if msg == "" {
			msg = "unable to extract video data"
		}
		return nil, errs.Unavailable(msg)
	}

	if !src.isLive {
		src.isLive = gjson.Get(src.playerResponse, "videoDetails.isLive").Bool()
	}
	// The embed page carries the player reference when the watch page omits it.
	if src.playerURL == "" && !src.ageGate && needsPlayer(src) {
		if embed, err := e.fetcher.Text(siteBase + "/embed/" + videoID); err == nil {
			src.playerURL = mineAssetsJS(embed)
		}
	}
	return src, nil
}

// collectAgeGated simulates embed-page access, which works without a login,
// and reads the stream data from get_video_info.
func (e *Extractor) collectAgeGated(videoID string, src *sources) {
	sts := ""
	embed, err := e.fetcher.Text(siteBase + "/embed/" + videoID)
	if err == nil {
		if m := stsRe.FindStringSubmatch(embed); m != nil {
			sts = m[1]
		}
		if src.playerURL == "" {
			src.playerURL = mineAssetsJS(embed)
		}
	}
	query := htmlutil.QueryStringFrom(map[string]string{
		"video_id": videoID,
		"eurl":     "https://youtube.googleapis.com/v/" + videoID,
		"sts":      sts,
	})
	body, err := e.fetcher.Text(siteBase + "/get_video_info?" + query)
	if err != nil {
		return
	}
	src.vinfo = htmlutil.ParseQueryString(body)
	src.playerResponse = joined(src.vinfo["player_response"])
}

// collectFromConfig mines ;ytplayer.config = {...}; and returns the sts
// value for a possible get_video_info walk.
func (e *Extractor) collectFromConfig(videoID, page string, src *sources) string {
	cfg := minePlayerConfig(page)
	if cfg == "" {
		return ""
	}
	args := gjson.Get(cfg, "args")

	streamMap := args.Get("url_encoded_fmt_stream_map").String()
	hlsvp := args.Get("hlsvp").String()
	if streamMap != "" || hlsvp != "" {
		src.vinfo = map[string][]string{}
		if streamMap != "" {
			src.vinfo["url_encoded_fmt_stream_map"] = []string{streamMap}
		}
		if hlsvp != "" {
			src.vinfo["hlsvp"] = []string{hlsvp}
		}
	}
	if args.Get("livestream").String() == "1" || args.Get("live_playback").Int() == 1 {
		src.isLive = true
	}
	src.playerResponse = args.Get("player_response").String()
	if js := gjson.Get(cfg, "assets.js").String(); js != "" && src.playerURL == "" {
		src.playerURL = js
	}
	return gjson.Get(cfg, "sts").String()
}

// walkVideoInfo tries the get_video_info el variants in order. Different
// variants may disagree; the first response carrying a playback token wins,
// because token-less responses tend to be the unavailable ones.
func (e *Extractor) walkVideoInfo(videoID, sts string, src *sources) {
	for _, el := range []string{"embedded", "detailpage", "vevo", ""} {
		query := map[string]string{
			"video_id": videoID,
			"ps":       "default",
			"eurl":     "",
			"gl":       "US",
			"hl":       "en",
		}
		if el != "" {
			query["el"] = el
		}
		if sts != "" {
			query["sts"] = sts
		}
		body, err := e.fetcher.Text(siteBase + "/get_video_info?" + htmlutil.QueryStringFrom(query))
		if err != nil || body == "" {
			continue
		}
		vinfo := htmlutil.ParseQueryString(body)
		if src.playerResponse == "" {
			src.playerResponse = joined(vinfo["player_response"])
		}
		if src.vinfo == nil {
			src.vinfo = vinfo
		}
		if playbackToken(vinfo) != "" {
			if playbackToken(src.vinfo) == "" {
				src.vinfo = vinfo
			}
			break
		}
	}
}

// unavailableReason prefers the page's own unavailability blocks, then the
// playability status, then the legacy reason field.
func (e *Extractor) unavailableReason(page string, src *sources) string {
	if msg := unavailableMessage(page); msg != "" {
		return msg
	}
	if reason := gjson.Get(src.playerResponse, "playabilityStatus.reason").String(); reason != "" {
		return htmlutil.CleanHTML(reason)
	}
	if reason := joined(src.vinfo["reason"]); reason != "" {
		return htmlutil.CleanHTML(reason)
	}
	return ""
}

// classifyUnavailable upgrades a generic content-unavailable failure to a
// more specific sentinel when the page reason identifies one.
func classifyUnavailable(err error, reason string) error {
	if !errors.Is(err, errs.ErrContentUnavailable) {
		return err
	}
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "available in your country"):
		return errs.ErrGeoBlocked
	case strings.Contains(lower, "private"):
		return errs.ErrPrivate
	}
	return err
}

func unavailableMessage(page string) string {
	var messages []string
	for _, spec := range [][2]string{{"h1", "message"}, {"div", "submessage"}} {
		re := regexp.MustCompile(`(?s)<` + spec[0] + `[^>]+id=["']unavailable-` + spec[1] + `["'][^>]*>(.+?)</` + spec[0] + `>`)
		if m, ok := htmlutil.SearchRegex(re, page); ok && m != "" {
			messages = append(messages, m)
		}
	}
	return strings.Join(messages, "\n")
}

// mineAssetsJS pulls the player bundle reference out of the page's assets
// JSON, undoing the escaped slashes.
func mineAssetsJS(page string) string {
	m := assetsJSRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], `\/`, `/`)
}

func minePlayerConfig(page string) string {
	for _, re := range playerCfgRes {
		if m := re.FindStringSubmatch(page); m != nil {
			return htmlutil.UppercaseEscape(m[1])
		}
	}
	return ""
}

// needsPlayer reports whether any known source carries a ciphered signature.
func needsPlayer(src *sources) bool {
	if strings.Contains(src.playerResponse, "signatureCipher") ||
		strings.Contains(src.playerResponse, `"cipher"`) {
		return true
	}
	for _, key := range []string{"url_encoded_fmt_stream_map", "adaptive_fmts"} {
		for _, raw := range src.vinfo[key] {
			if strings.HasPrefix(raw, "s=") || strings.Contains(raw, "&s=") || strings.Contains(raw, "%26s%3D") {
				return true
			}
		}
	}
	return false
}

func playbackToken(vinfo map[string][]string) string {
	for _, key := range []string{"account_playback_token", "accountPlaybackToken", "token"} {
		if v := first(vinfo[key]); v != "" {
			return v
		}
	}
	return ""
}

// applyStretchedRatio propagates a page-declared display aspect ratio to
// every video-carrying format. Invalid ratios (e.g. 17:0) are ignored.
func applyStretchedRatio(page string, list []types.Format) {
	m := stretchRe.FindStringSubmatch(page)
	if m == nil {
		return
	}
	w, h := atoiSafe(m[1]), atoiSafe(m[2])
	if w <= 0 || h <= 0 {
		return
	}
	ratio := float64(w) / float64(h)
	for i := range list {
		if list[i].HasVideo() {
			list[i].StretchedRatio = ratio
		}
	}
}

func first(vals []string) string {
	if len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// joined restores a value the query-string parser split on commas; needed
// wherever JSON or prose flows through a query field.
func joined(vals []string) string {
	return strings.Join(vals, ",")
}
