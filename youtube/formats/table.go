package formats

import "github.com/vidmine/vidmine/types"

// itagTable maps known format identifiers to their fixed characteristics.
// Table values backfill records assembled from live sources and never
// overwrite a field a live source supplied.
var itagTable = map[string]types.Format{
	"5":  {Ext: "flv", Width: 400, Height: 240, ACodec: "mp3", ABR: 64, VCodec: "h263"},
	"6":  {Ext: "flv", Width: 450, Height: 270, ACodec: "mp3", ABR: 64, VCodec: "h263"},
	"13": {Ext: "3gp", ACodec: "aac", VCodec: "mp4v"},
	"17": {Ext: "3gp", Width: 176, Height: 144, ACodec: "aac", ABR: 24, VCodec: "mp4v"},
	"18": {Ext: "mp4", Width: 640, Height: 360, ACodec: "aac", ABR: 96, VCodec: "h264"},
	"22": {Ext: "mp4", Width: 1280, Height: 720, ACodec: "aac", ABR: 192, VCodec: "h264"},
	"34": {Ext: "flv", Width: 640, Height: 360, ACodec: "aac", ABR: 128, VCodec: "h264"},
	"35": {Ext: "flv", Width: 854, Height: 480, ACodec: "aac", ABR: 128, VCodec: "h264"},
	// itag 36 videos are either 320x180 or 320x240, abr varies as well.
	"36": {Ext: "3gp", Width: 320, ACodec: "aac", VCodec: "mp4v"},
	"37": {Ext: "mp4", Width: 1920, Height: 1080, ACodec: "aac", ABR: 192, VCodec: "h264"},
	"38": {Ext: "mp4", Width: 4096, Height: 3072, ACodec: "aac", ABR: 192, VCodec: "h264"},
	"43": {Ext: "webm", Width: 640, Height: 360, ACodec: "vorbis", ABR: 128, VCodec: "vp8"},
	"44": {Ext: "webm", Width: 854, Height: 480, ACodec: "vorbis", ABR: 128, VCodec: "vp8"},
	"45": {Ext: "webm", Width: 1280, Height: 720, ACodec: "vorbis", ABR: 192, VCodec: "vp8"},
	"46": {Ext: "webm", Width: 1920, Height: 1080, ACodec: "vorbis", ABR: 192, VCodec: "vp8"},
	"59": {Ext: "mp4", Width: 854, Height: 480, ACodec: "aac", ABR: 128, VCodec: "h264"},
	"78": {Ext: "mp4", Width: 854, Height: 480, ACodec: "aac", ABR: 128, VCodec: "h265"},

	// 3D videos
	"82":  {Ext: "mp4", Height: 360, FormatNote: "3D", ACodec: "aac", ABR: 128, VCodec: "h264", Preference: -20},
	"83":  {Ext: "mp4", Height: 480, FormatNote: "3D", ACodec: "aac", ABR: 128, VCodec: "h264", Preference: -20},
	"84":  {Ext: "mp4", Height: 720, FormatNote: "3D", ACodec: "aac", ABR: 192, VCodec: "h264", Preference: -20},
	"85":  {Ext: "mp4", Height: 1080, FormatNote: "3D", ACodec: "aac", ABR: 192, VCodec: "h264", Preference: -20},
	"100": {Ext: "webm", Height: 360, FormatNote: "3D", ACodec: "vorbis", ABR: 128, VCodec: "vp8", Preference: -20},
	"101": {Ext: "webm", Height: 480, FormatNote: "3D", ACodec: "vorbis", ABR: 192, VCodec: "vp8", Preference: -20},
	"102": {Ext: "webm", Height: 720, FormatNote: "3D", ACodec: "vorbis", ABR: 192, VCodec: "vp8", Preference: -20},

	// Apple HTTP Live Streaming
	"91":  {Ext: "mp4", Height: 144, FormatNote: "HLS", ACodec: "aac", ABR: 48, VCodec: "h264", Preference: -10},
	"92":  {Ext: "mp4", Height: 240, FormatNote: "HLS", ACodec: "aac", ABR: 48, VCodec: "h264", Preference: -10},
	"93":  {Ext: "mp4", Height: 360, FormatNote: "HLS", ACodec: "aac", ABR: 128, VCodec: "h264", Preference: -10},
	"94":  {Ext: "mp4", Height: 480, FormatNote: "HLS", ACodec: "aac", ABR: 128, VCodec: "h264", Preference: -10},
	"95":  {Ext: "mp4", Height: 720, FormatNote: "HLS", ACodec: "aac", ABR: 256, VCodec: "h264", Preference: -10},
	"96":  {Ext: "mp4", Height: 1080, FormatNote: "HLS", ACodec: "aac", ABR: 256, VCodec: "h264", Preference: -10},
	"132": {Ext: "mp4", Height: 240, FormatNote: "HLS", ACodec: "aac", ABR: 48, VCodec: "h264", Preference: -10},
	"151": {Ext: "mp4", Height: 72, FormatNote: "HLS", ACodec: "aac", ABR: 24, VCodec: "h264", Preference: -10},

	// DASH mp4 video
	"133": {Ext: "mp4", Height: 240, FormatNote: "DASH video", VCodec: "h264"},
	"134": {Ext: "mp4", Height: 360, FormatNote: "DASH video", VCodec: "h264"},
	"135": {Ext: "mp4", Height: 480, FormatNote: "DASH video", VCodec: "h264"},
	"136": {Ext: "mp4", Height: 720, FormatNote: "DASH video", VCodec: "h264"},
	"137": {Ext: "mp4", Height: 1080, FormatNote: "DASH video", VCodec: "h264"},
	// Height of itag 138 varies.
	"138": {Ext: "mp4", FormatNote: "DASH video", VCodec: "h264"},
	"160": {Ext: "mp4", Height: 144, FormatNote: "DASH video", VCodec: "h264"},
	"212": {Ext: "mp4", Height: 480, FormatNote: "DASH video", VCodec: "h264"},
	"264": {Ext: "mp4", Height: 1440, FormatNote: "DASH video", VCodec: "h264"},
	"298": {Ext: "mp4", Height: 720, FormatNote: "DASH video", VCodec: "h264"},
	"299": {Ext: "mp4", Height: 1080, FormatNote: "DASH video", VCodec: "h264"},
	"266": {Ext: "mp4", Height: 2160, FormatNote: "DASH video", VCodec: "h264"},

	// DASH mp4 audio
	"139": {Ext: "m4a", FormatNote: "DASH audio", ACodec: "aac", ABR: 48},
	"140": {Ext: "m4a", FormatNote: "DASH audio", ACodec: "aac", ABR: 128},
	"141": {Ext: "m4a", FormatNote: "DASH audio", ACodec: "aac", ABR: 256},
	"256": {Ext: "m4a", FormatNote: "DASH audio", ACodec: "aac"},
	"258": {Ext: "m4a", FormatNote: "DASH audio", ACodec: "aac"},
	"325": {Ext: "m4a", FormatNote: "DASH audio", ACodec: "dtse"},
	"328": {Ext: "m4a", FormatNote: "DASH audio", ACodec: "ec-3"},

	// DASH webm video
	"167": {Ext: "webm", Height: 360, Width: 640, FormatNote: "DASH video", VCodec: "vp8"},
	"168": {Ext: "webm", Height: 480, Width: 854, FormatNote: "DASH video", VCodec: "vp8"},
	"169": {Ext: "webm", Height: 720, Width: 1280, FormatNote: "DASH video", VCodec: "vp8"},
	"170": {Ext: "webm", Height: 1080, Width: 1920, FormatNote: "DASH video", VCodec: "vp8"},
	"218": {Ext: "webm", Height: 480, Width: 854, FormatNote: "DASH video", VCodec: "vp8"},
	"219": {Ext: "webm", Height: 480, Width: 854, FormatNote: "DASH video", VCodec: "vp8"},
	"278": {Ext: "webm", Height: 144, FormatNote: "DASH video", VCodec: "vp9"},
	"242": {Ext: "webm", Height: 240, FormatNote: "DASH video", VCodec: "vp9"},
	"243": {Ext: "webm", Height: 360, FormatNote: "DASH video", VCodec: "vp9"},
	"244": {Ext: "webm", Height: 480, FormatNote: "DASH video", VCodec: "vp9"},
	"245": {Ext: "webm", Height: 480, FormatNote: "DASH video", VCodec: "vp9"},
	"246": {Ext: "webm", Height: 480, FormatNote: "DASH video", VCodec: "vp9"},
	"247": {Ext: "webm", Height: 720, FormatNote: "DASH video", VCodec: "vp9"},
	"248": {Ext: "webm", Height: 1080, FormatNote: "DASH video", VCodec: "vp9"},
	"271": {Ext: "webm", Height: 1440, FormatNote: "DASH video", VCodec: "vp9"},
	// itag 272 videos are either 3840x2160 or 7680x4320.
	"272": {Ext: "webm", Height: 2160, FormatNote: "DASH video", VCodec: "vp9"},
	"302": {Ext: "webm", Height: 720, FormatNote: "DASH video", VCodec: "vp9", FPS: 60},
	"303": {Ext: "webm", Height: 1080, FormatNote: "DASH video", VCodec: "vp9", FPS: 60},
	"308": {Ext: "webm", Height: 1440, FormatNote: "DASH video", VCodec: "vp9", FPS: 60},
	"313": {Ext: "webm", Height: 2160, FormatNote: "DASH video", VCodec: "vp9"},
	"315": {Ext: "webm", Height: 2160, FormatNote: "DASH video", VCodec: "vp9", FPS: 60},

	// DASH webm audio
	"171": {Ext: "webm", ACodec: "vorbis", FormatNote: "DASH audio", ABR: 128},
	"172": {Ext: "webm", ACodec: "vorbis", FormatNote: "DASH audio", ABR: 256},

	// DASH webm audio with opus inside
	"249": {Ext: "webm", FormatNote: "DASH audio", ACodec: "opus", ABR: 50},
	"250": {Ext: "webm", FormatNote: "DASH audio", ACodec: "opus", ABR: 70},
	"251": {Ext: "webm", FormatNote: "DASH audio", ACodec: "opus", ABR: 160},

	// RTMP (unnamed)
	"_rtmp": {Protocol: types.ProtocolRTMP},

	// av01 video-only formats sometimes served with "unknown" codecs
	"394": {ACodec: types.CodecNone, VCodec: "av01.0.05M.08"},
	"395": {ACodec: types.CodecNone, VCodec: "av01.0.05M.08"},
	"396": {ACodec: types.CodecNone, VCodec: "av01.0.05M.08"},
	"397": {ACodec: types.CodecNone, VCodec: "av01.0.05M.08"},
}

// TableDefaults returns the static characteristics of a known format id.
func TableDefaults(formatID string) (types.Format, bool) {
	f, ok := itagTable[formatID]
	return f, ok
}

// fillMissing copies every src field into dst that dst does not already set.
func fillMissing(dst *types.Format, src types.Format) {
	if dst.Ext == "" {
		dst.Ext = src.Ext
	}
	if dst.ACodec == "" {
		dst.ACodec = src.ACodec
	}
	if dst.VCodec == "" {
		dst.VCodec = src.VCodec
	}
	if dst.Width == 0 {
		dst.Width = src.Width
	}
	if dst.Height == 0 {
		dst.Height = src.Height
	}
	if dst.FPS == 0 {
		dst.FPS = src.FPS
	}
	if dst.TBR == 0 {
		dst.TBR = src.TBR
	}
	if dst.ABR == 0 {
		dst.ABR = src.ABR
	}
	if dst.Filesize == 0 {
		dst.Filesize = src.Filesize
	}
	if dst.FormatNote == "" {
		dst.FormatNote = src.FormatNote
	}
	if dst.Preference == 0 {
		dst.Preference = src.Preference
	}
	if dst.Protocol == "" {
		dst.Protocol = src.Protocol
	}
}
