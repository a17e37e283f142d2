package watchpage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmine/vidmine/types"
)

// richPage carries every descriptive block the miners look for.
const richPage = `<html><head>
<meta itemprop="datePublished" content="2019-04-23">
<meta itemprop="channelId" content="UCchannel123">
<meta property="og:video:tag" content="music">
<meta property="og:video:tag" content="live session">
<link itemprop="url" href="https://www.youtube.com/user/testuploader">
</head><body>
<span itemprop="thumbnail"><link itemprop="url" href="https://i.example.com/vi/maxres.jpg"></span>
<script>;ytplayer.config = {"args":{` +
	`"url_encoded_fmt_stream_map":"itag=22&url=https%3A%2F%2Fr1.example.com%2Fvideoplayback%3Fitag%3D22",` +
	`"player_response":"{\"videoDetails\":{\"title\":\"Big Concert\",\"lengthSeconds\":\"180\",\"author\":\"Test Uploader\"}}"` +
	`},"assets":{"js":"\/s\/player\/abc\/base.js"}};ytplayer.load();</script>
<div id="eow-description">Welcome to the show. Visit <a href="https://www.youtube.com/redirect?q=https%3A%2F%2Fexample.org%2Ffull-link" class="yt-uix-redirect-link">https://example.org/fu...</a> for more.<br/><a href="#" onclick="yt.www.watch.player.seekTo(0)">0:00</a> Opening<br/><a href="#" onclick="yt.www.watch.player.seekTo(60)">1:00</a> - Finale<br/>Thanks for watching!</div>
<h4 class="title"> License </h4><ul class="content watch-info-tag-list"><li>Creative Commons Attribution license</li></ul>
<h4 class="title"> Song </h4><ul class="content"><li>Test Anthem</li>
</ul>
<h4 class="title"> Artist </h4><ul class="content"><li>The Testers</li>
</ul>
<h4 class="title"> Category </h4><ul class="content"><li><a href="/music">Music</a></li></ul>
</body></html>`

func TestExtractMetadata(t *testing.T) {
	e := newExtractor(scriptedFetcher([]struct{ match, body string }{
		{"/watch?v=", richPage},
	}, nil))

	info, err := e.Extract(testVideoURL)
	require.NoError(t, err)

	assert.Equal(t, "Big Concert", info.Title)
	assert.Equal(t, "Test Uploader", info.Uploader)
	assert.Equal(t, "testuploader", info.UploaderID)
	assert.Equal(t, "https://www.youtube.com/user/testuploader", info.UploaderURL)
	assert.Equal(t, "UCchannel123", info.ChannelID)
	assert.Equal(t, "https://www.youtube.com/channel/UCchannel123", info.ChannelURL)
	assert.Equal(t, "https://i.example.com/vi/maxres.jpg", info.Thumbnail)
	assert.Equal(t, "20190423", info.UploadDate)
	assert.Equal(t, "Creative Commons Attribution license", info.License)
	assert.Equal(t, "Test Anthem", info.Track)
	assert.Equal(t, "The Testers", info.Artist)
	assert.Equal(t, "The Testers", info.Creator)
	assert.Equal(t, []string{"Music"}, info.Categories)
	assert.Equal(t, []string{"music", "live session"}, info.Tags)
	assert.Equal(t, float64(180), info.Duration)

	// The shortened redirect link is replaced with its real target.
	assert.Contains(t, info.Description, "https://example.org/full-link")
	assert.False(t, strings.Contains(info.Description, "/redirect"))

	require.Len(t, info.Chapters, 2)
	assert.Equal(t, float64(0), info.Chapters[0].StartTime)
	assert.Equal(t, float64(60), info.Chapters[0].EndTime)
	assert.Equal(t, "Opening", info.Chapters[0].Title)
	assert.Equal(t, float64(60), info.Chapters[1].StartTime)
	assert.Equal(t, float64(180), info.Chapters[1].EndTime)
	assert.Equal(t, "Finale", info.Chapters[1].Title)
}

func TestExtractChaptersIgnoresOutOfRange(t *testing.T) {
	desc := `intro<br/><a href="#" onclick="yt.www.watch.player.seekTo(0)">0:30</a> Late start<br/>` +
		`<a href="#" onclick="yt.www.watch.player.seekTo(0)">9:00</a> Beyond the end`
	chapters := extractChapters(desc, 120)
	// The first chapter's end is clamped to the video duration; the chapter
	// starting past the end is dropped.
	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(chapters) == 1, "want exactly one chapter")
	require(chapters[0].StartTime == 30, "start time")
	require(chapters[0].EndTime == 120, "end time clamped to duration")
	require(chapters[0].Title == "Late start", "title")
}

func TestMineAutoGeneratedMusic(t *testing.T) {
	info := &types.VideoInfo{}
	info.Description = "Provided to YouTube by Test Records\n\n" +
		"Test Anthem · The Testers\n\nGreatest Hits\n\n" +
		"℗ 2018 Test Records\n\nReleased on: 2018-06-15\n\nAuto-generated by YouTube."
	mineAutoGeneratedMusic(info)

	if info.Track != "Test Anthem" {
		t.Errorf("Track = %q", info.Track)
	}
	if info.Artist != "The Testers" {
		t.Errorf("Artist = %q", info.Artist)
	}
	if info.Album != "Greatest Hits" {
		t.Errorf("Album = %q", info.Album)
	}
	if info.ReleaseYear != 2018 {
		t.Errorf("ReleaseYear = %d", info.ReleaseYear)
	}
	if info.ReleaseDate != "20180615" {
		t.Errorf("ReleaseDate = %q", info.ReleaseDate)
	}
}
