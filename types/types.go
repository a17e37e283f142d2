package types

// Stream protocols.
const (
	ProtocolHTTPS = "https"
	ProtocolHLS   = "m3u8_native"
	ProtocolRTMP  = "rtmp"
)

// CodecNone marks a stream that carries no track of the given kind.
const CodecNone = "none"

// Format describes one downloadable or streamable rendition of a video.
type Format struct {
	FormatID    string
	URL         string
	Ext         string
	ACodec      string
	VCodec      string
	Width       int
	Height      int
	FPS         float64
	TBR         float64 // target bitrate, kbit/s
	ABR         float64 // audio bitrate, kbit/s
	Filesize    int64
	Protocol    string
	ManifestURL string
	FormatNote  string
	Preference  int
	PlayerURL   string
	Language    string
	// StretchedRatio is set when the page declares a display aspect ratio
	// different from the encoded one.
	StretchedRatio float64
	// ChunkedDownload recommends ranged requests in <=10M chunks; set for
	// formats missing a codec field, which the CDN throttles otherwise.
	ChunkedDownload bool
}

// HasVideo reports whether the format carries a video track.
func (f *Format) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != CodecNone
}

// HasAudio reports whether the format carries an audio track.
func (f *Format) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != CodecNone
}

// Chapter is a titled time range inside a video.
type Chapter struct {
	StartTime float64
	EndTime   float64
	Title     string
}

// Rendition is one alternative track from a master playlist MEDIA line.
type Rendition struct {
	Type     string // AUDIO or VIDEO
	GroupID  string
	Name     string
	Language string
	URI      string
}

// VideoInfo is the assembled metadata record for one extraction.
type VideoInfo struct {
	ID          string
	Title       string
	AltTitle    string
	Description string

	Uploader    string
	UploaderID  string
	UploaderURL string
	ChannelID   string
	ChannelURL  string
	Creator     string

	UploadDate  string
	ReleaseDate string
	ReleaseYear int

	Thumbnail  string
	WebpageURL string
	License    string
	Categories []string
	Tags       []string

	Duration      float64
	ViewCount     int64
	LikeCount     int64
	DislikeCount  int64
	AverageRating float64

	IsLive   bool
	AgeLimit int

	Series        string
	SeasonNumber  int
	EpisodeNumber int

	Track  string
	Artist string
	Album  string

	Chapters []Chapter
	Formats  []Format
}
