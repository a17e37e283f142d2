package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vidmine/vidmine"
	"github.com/vidmine/vidmine/internal/fetch"
	"github.com/vidmine/vidmine/internal/logger"
	"github.com/vidmine/vidmine/internal/sanitize"
	"github.com/vidmine/vidmine/types"
)

func main() {
	var (
		flagFormat   string
		flagExt      string
		flagJSON     bool
		flagURLOnly  bool
		flagCacheDir string
		flagTimeout  time.Duration
		flagRetries  int
		flagUA       string
		flagProxy    string
		flagVerbose  bool
	)

	flag.StringVar(&flagFormat, "format", "", "Format selector (e.g., 'itag=22', 'best', 'height<=480')")
	flag.StringVar(&flagExt, "ext", "", "Desired extension (e.g., 'mp4', 'webm')")
	flag.BoolVar(&flagJSON, "json", false, "Print the full info record as JSON")
	flag.BoolVar(&flagURLOnly, "url", false, "Print only the selected format's media URL")
	flag.StringVar(&flagCacheDir, "player-cache", "", "Directory for caching player bundles between runs")
	flag.DurationVar(&flagTimeout, "http-timeout", 30*time.Second, "HTTP timeout (e.g., 30s, 1m)")
	flag.IntVar(&flagRetries, "retries", 3, "HTTP retries for transient errors")
	flag.StringVar(&flagUA, "ua", "", "Override User-Agent header")
	flag.StringVar(&flagProxy, "proxy", "", "Proxy URL (http/https/socks)")
	flag.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging for all components")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <video_url>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := strings.TrimSpace(args[0])

	configureLogging(flagVerbose)

	e := vidmine.New().
		WithClientConfig(fetch.Config{Timeout: flagTimeout, Retries: flagRetries, UserAgent: flagUA, ProxyURL: flagProxy}).
		WithPlayerCacheDir(flagCacheDir)
	if flagFormat != "" || flagExt != "" {
		e = e.WithFormat(flagFormat, flagExt)
	}

	ctx := context.Background()

	if flagURLOnly {
		u, _, err := e.ResolveURL(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(u)
		return
	}

	info, err := e.Extract(ctx, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(info); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printInfo(info)
}

func printInfo(info *types.VideoInfo) {
	fmt.Printf("Title:    %s\n", info.Title)
	if info.Uploader != "" {
		fmt.Printf("Uploader: %s\n", info.Uploader)
	}
	if info.Duration > 0 {
		fmt.Printf("Duration: %s\n", time.Duration(info.Duration*float64(time.Second)).Round(time.Second))
	}
	if info.UploadDate != "" {
		fmt.Printf("Uploaded: %s\n", info.UploadDate)
	}
	if info.IsLive {
		fmt.Println("Live:     yes")
	}
	fmt.Printf("File:     %s\n", sanitize.ToSafeFilename(info.Title, bestExt(info.Formats)))

	fmt.Printf("\nFormats (%d):\n", len(info.Formats))
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXT\tRESOLUTION\tFPS\tTBR\tPROTO\tNOTE")
	for _, f := range info.Formats {
		res := "audio only"
		if f.HasVideo() {
			res = fmt.Sprintf("%dx%d", f.Width, f.Height)
		}
		fps := ""
		if f.FPS > 0 {
			fps = fmt.Sprintf("%.0f", f.FPS)
		}
		tbr := ""
		if f.TBR > 0 {
			tbr = fmt.Sprintf("%.0fk", f.TBR)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.FormatID, f.Ext, res, fps, tbr, f.Protocol, f.FormatNote)
	}
	_ = w.Flush()
}

// bestExt picks the extension the derived filename should carry: the best
// progressive format's, falling back to the first format's.
func bestExt(list []types.Format) string {
	for _, f := range list {
		if f.HasVideo() && f.HasAudio() {
			return f.Ext
		}
	}
	if len(list) > 0 {
		return list[0].Ext
	}
	return ""
}

// configureLogging builds the global logger from VIDMINE_LOG_* environment
// variables (level, format, output, components, rotation). -verbose turns
// every component on at debug level on top of that.
func configureLogging(verbose bool) {
	l, err := logger.CreateLoggerWithRotation(logger.EnvironmentConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: bad log configuration: %v\n", err)
		l = logger.New(logger.DefaultConfig())
	}
	if verbose {
		l.SetLevel(logger.DEBUG)
		for _, c := range []logger.Component{
			logger.ComponentApp, logger.ComponentFetch, logger.ComponentSig,
			logger.ComponentJS, logger.ComponentHLS, logger.ComponentPage,
			logger.ComponentFormat,
		} {
			l.EnableComponent(c)
		}
	}
	logger.SetGlobalLogger(l)
}
