// Package formats reconciles the partially-overlapping stream sources a
// watch page exposes (the structured streaming-data block, the legacy
// query-string stream maps and the streaming manifest) into one canonical
// format record per variant, backfilled from a static lookup table.
package formats

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/vidmine/vidmine/errs"
	"github.com/vidmine/vidmine/internal/fetch"
	"github.com/vidmine/vidmine/internal/htmlutil"
	"github.com/vidmine/vidmine/internal/logger"
	"github.com/vidmine/vidmine/internal/mimeext"
	"github.com/vidmine/vidmine/types"
	"github.com/vidmine/vidmine/youtube/hls"
)

var (
	sizeRe     = regexp.MustCompile(`^(\d+)[xX](\d+)$`)
	hlsItagRe  = regexp.MustCompile(`/itag/(\d+)/`)
	legacyKeys = []string{"url_encoded_fmt_stream_map", "adaptive_fmts"}
)

// SignatureDecoder resolves scrambled signatures and throttling parameters
// against a player bundle.
type SignatureDecoder interface {
	Decode(playerURL, sig string) (string, error)
	DecodeN(playerURL, nval string) (string, error)
}

// Resolver assembles format records for one video.
type Resolver struct {
	decoder SignatureDecoder
	fetcher fetch.Fetcher
	log     *logger.ComponentLogger
}

// NewResolver creates a Resolver. The fetcher downloads streaming manifests;
// the decoder handles ciphered stream URLs.
func NewResolver(decoder SignatureDecoder, fetcher fetch.Fetcher) *Resolver {
	return &Resolver{
		decoder: decoder,
		fetcher: fetcher,
		log:     logger.WithComponent(logger.ComponentFormat),
	}
}

// Input carries every stream source mined from a watch page.
type Input struct {
	// PlayerResponseJSON is the raw player-response document, "" when absent.
	PlayerResponseJSON string
	// VideoInfo holds legacy query-string fields (conn, fmt_list, stream
	// maps, hlsvp). Values are already URL-decoded and comma-split.
	VideoInfo map[string][]string
	// PlayerURL locates the player bundle for signature work.
	PlayerURL string
	IsLive    bool
	// UnavailableReason is the page's own explanation used when no source
	// yields a format.
	UnavailableReason string
}

// Reconcile merges all of in's sources into one format list. It fails with
// an unsupported-feature error for DRM-only and RTMP-encrypted content, and
// with a content-unavailable error when no source yields anything.
func (r *Resolver) Reconcile(in Input) ([]types.Format, error) {
	if conn := first(in.VideoInfo["conn"]); strings.HasPrefix(conn, "rtmp") {
		f := types.Format{
			FormatID:  "_rtmp",
			URL:       conn,
			PlayerURL: in.PlayerURL,
		}
		if def, ok := TableDefaults(f.FormatID); ok {
			fillMissing(&f, def)
		}
		return []types.Format{f}, nil
	}

	var formats []types.Format
	drmSeen := false

	if !in.IsLive {
		for _, key := range legacyKeys {
			for _, raw := range in.VideoInfo[key] {
				// Encrypted RTMP variants cannot be downloaded at all.
				if strings.Contains(raw, "rtmpe%3Dyes") {
					return nil, errs.Unsupported("rtmpe downloads")
				}
			}
		}
		fmtSpec := parseFmtList(in.VideoInfo["fmt_list"])

		// The structured and legacy sources overlap on real pages; each itag
		// yields exactly one record, with the first source seen keeping its
		// fields and later duplicates only filling gaps.
		byItag := make(map[string]int)
		for _, data := range r.collectCandidates(in) {
			if len(data["drm_families"]) > 0 {
				drmSeen = true
				continue
			}
			f, ok := r.progressiveFormat(data, fmtSpec, in.PlayerURL)
			if !ok {
				continue
			}
			if i, dup := byItag[f.FormatID]; dup {
				fillMissing(&formats[i], f)
				continue
			}
			byItag[f.FormatID] = len(formats)
			formats = append(formats, f)
		}
	}

	if len(formats) > 0 {
		return formats, nil
	}
	if drmSeen || gjson.Get(in.PlayerResponseJSON, "streamingData.licenseInfos").Exists() {
		return nil, errs.ErrDRMProtected
	}

	manifestURL := gjson.Get(in.PlayerResponseJSON, "streamingData.hlsManifestUrl").String()
	if manifestURL == "" {
		manifestURL = first(in.VideoInfo["hlsvp"])
	}
	if manifestURL != "" {
		mf, err := r.manifestFormats(manifestURL, in)
		if err != nil {
			return nil, err
		}
		if len(mf) > 0 {
			return mf, nil
		}
	}

	return nil, errs.Unavailable(in.UnavailableReason)
}

// collectCandidates normalizes the structured streaming-data entries and the
// legacy stream-map chunks into one query-field shape.
func (r *Resolver) collectCandidates(in Input) []map[string][]string {
	var candidates []map[string][]string

	for _, key := range []string{"streamingData.formats", "streamingData.adaptiveFormats"} {
		gjson.Get(in.PlayerResponseJSON, key).ForEach(func(_, v gjson.Result) bool {
			candidates = append(candidates, candidateFromJSON(v))
			return true
		})
	}

	for _, key := range legacyKeys {
		for _, raw := range in.VideoInfo[key] {
			for _, chunk := range strings.Split(raw, ",") {
				if strings.TrimSpace(chunk) == "" {
					continue
				}
				data := htmlutil.ParseQueryString(chunk)
				if first(data["itag"]) == "" || first(data["url"]) == "" {
					continue
				}
				candidates = append(candidates, data)
			}
		}
	}
	return candidates
}

func candidateFromJSON(v gjson.Result) map[string][]string {
	data := make(map[string][]string)
	set := func(key, val string) {
		if val != "" {
			data[key] = []string{val}
		}
	}
	set("itag", v.Get("itag").String())
	set("url", v.Get("url").String())
	set("type", v.Get("mimeType").String())
	set("bitrate", v.Get("bitrate").String())
	set("average_bitrate", v.Get("averageBitrate").String())
	set("width", v.Get("width").String())
	set("height", v.Get("height").String())
	set("fps", v.Get("fps").String())
	set("quality_label", v.Get("qualityLabel").String())
	set("clen", v.Get("contentLength").String())
	if v.Get("drmFamilies").Exists() {
		data["drm_families"] = []string{"1"}
	}
	if v.Get("type").String() == "FORMAT_STREAM_TYPE_OTF" {
		data["stream_type"] = []string{"3"}
	}
	// The cipher blob is itself a query string carrying url, s and sp.
	cipher := v.Get("signatureCipher").String()
	if cipher == "" {
		cipher = v.Get("cipher").String()
	}
	if cipher != "" {
		for key, vals := range htmlutil.ParseQueryString(cipher) {
			data[key] = vals
		}
	}
	return data
}

// progressiveFormat builds one record from normalized candidate fields.
// A false return means the candidate is skipped: segmented OTF streams are
// unsupported, and a failed signature resolution must not abort the
// remaining candidates.
func (r *Resolver) progressiveFormat(data map[string][]string, fmtSpec map[string][2]int, playerURL string) (types.Format, bool) {
	itag := first(data["itag"])
	// OTF streams require segment stitching no downloader here performs.
	if first(data["stream_type"]) == "3" {
		return types.Format{}, false
	}

	streamURL, ok := r.resolveStreamURL(data, itag, playerURL)
	if !ok {
		return types.Format{}, false
	}

	f := types.Format{
		FormatID:   itag,
		URL:        streamURL,
		Protocol:   types.ProtocolHTTPS,
		PlayerURL:  playerURL,
		FormatNote: first(data["quality_label"]),
	}
	f.Width, _ = strconv.Atoi(first(data["width"]))
	f.Height, _ = strconv.Atoi(first(data["height"]))
	f.FPS, _ = strconv.ParseFloat(first(data["fps"]), 64)
	f.Filesize, _ = strconv.ParseInt(first(data["clen"]), 10, 64)

	// ParseQueryString splits the decoded mime type on its codec-list comma.
	mime := strings.Join(data["type"], ",")
	if mime != "" {
		f.Ext = mimeext.ExtFromMime(mime)
		if codecs := mimeext.CodecsParam(mime); codecs != "" {
			f.VCodec, f.ACodec = mimeext.ParseCodecs(codecs)
		}
		if strings.HasPrefix(mime, "audio/") && f.VCodec == "" {
			f.VCodec = types.CodecNone
		}
	}

	// itag 43 entries carry a placeholder bitrate, not a real one.
	if itag != "43" {
		bps := first(data["average_bitrate"])
		if bps == "" {
			bps = first(data["bitrate"])
		}
		if v, err := strconv.ParseFloat(bps, 64); err == nil && v > 0 {
			f.TBR = v / 1000
		}
	}

	if def, ok := TableDefaults(itag); ok {
		fillMissing(&f, def)
	}
	if f.Width == 0 || f.Height == 0 {
		r.backfillResolution(&f, streamURL, fmtSpec[itag])
	}
	if !f.HasAudio() || !f.HasVideo() {
		f.ChunkedDownload = true
	}
	return f, true
}

// resolveStreamURL produces a final downloadable URL: descrambles the s
// cipher field when present, applies the n-parameter transform and makes
// sure ratebypass is set so the CDN serves at full speed.
func (r *Resolver) resolveStreamURL(data map[string][]string, itag, playerURL string) (string, bool) {
	rawURL := first(data["url"])
	if rawURL == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	q := u.Query()

	if sig := first(data["sig"]); sig != "" {
		q.Set("signature", sig)
	} else if s := first(data["s"]); s != "" {
		decoded, err := r.decoder.Decode(playerURL, s)
		if err != nil {
			r.log.Warn("signature resolution failed, skipping format", map[string]interface{}{
				"itag":  itag,
				"error": err.Error(),
			})
			return "", false
		}
		sp := first(data["sp"])
		if sp == "" {
			sp = "signature"
		}
		q.Set(sp, decoded)
	}

	if nval := q.Get("n"); nval != "" {
		if nout, err := r.decoder.DecodeN(playerURL, nval); err == nil && nout != "" {
			q.Set("n", nout)
		}
	}
	if q.Get("ratebypass") == "" {
		q.Set("ratebypass", "yes")
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// backfillResolution fills a missing resolution from the URL's own size
// token, then from the fmt_list spec.
func (r *Resolver) backfillResolution(f *types.Format, streamURL string, spec [2]int) {
	if u, err := url.Parse(streamURL); err == nil {
		if m := sizeRe.FindStringSubmatch(u.Query().Get("size")); m != nil {
			if f.Width == 0 {
				f.Width, _ = strconv.Atoi(m[1])
			}
			if f.Height == 0 {
				f.Height, _ = strconv.Atoi(m[2])
			}
			return
		}
	}
	if f.Width == 0 {
		f.Width = spec[0]
	}
	if f.Height == 0 {
		f.Height = spec[1]
	}
}

// manifestFormats downloads and parses the streaming manifest, recovering
// format identifiers from per-variant itag path segments and backfilling
// from the lookup table.
func (r *Resolver) manifestFormats(manifestURL string, in Input) ([]types.Format, error) {
	doc, err := r.fetcher.Text(manifestURL)
	if err != nil {
		return nil, errors.Wrap(err, "download streaming manifest")
	}
	mf := hls.ParseFormats(doc, manifestURL, hls.Hints{
		Ext:      "mp4",
		Protocol: types.ProtocolHLS,
		IDPrefix: "hls",
		Live:     in.IsLive,
	})
	for i := range mf {
		mf[i].PlayerURL = in.PlayerURL
		m := hlsItagRe.FindStringSubmatch(mf[i].URL)
		if m == nil {
			continue
		}
		mf[i].FormatID = m[1]
		if def, ok := TableDefaults(m[1]); ok {
			fillMissing(&mf[i], def)
		}
	}
	r.log.Debug("manifest fallback", map[string]interface{}{
		"url":     manifestURL,
		"formats": len(mf),
	})
	return mf, nil
}

// parseFmtList decodes fmt_list entries of the form "itag/WIDTHxHEIGHT/..."
// into a per-itag resolution spec.
func parseFmtList(vals []string) map[string][2]int {
	spec := make(map[string][2]int)
	for _, v := range vals {
		parts := strings.Split(v, "/")
		if len(parts) < 2 {
			continue
		}
		m := sizeRe.FindStringSubmatch(parts[1])
		if m == nil {
			continue
		}
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		spec[parts[0]] = [2]int{w, h}
	}
	return spec
}

func first(vals []string) string {
	if len(vals) > 0 {
		return vals[0]
	}
	return ""
}
