// Command sintel is the command-line interface to the Sintel
// security-intelligence API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/term"

	"github.com/sintelhq/go-sintel/internal/config"
	"github.com/sintelhq/go-sintel/pkg/client"
	"github.com/sintelhq/go-sintel/pkg/logging"
	"github.com/sintelhq/go-sintel/pkg/pagination"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "sintel:", err)
		os.Exit(1)
	}
}

// rootOptions holds the global flags. Flag values take precedence over the
// configuration file, which takes precedence over built-in defaults.
type rootOptions struct {
	apiKey       string
	scheme       string
	host         string
	port         int
	apiVersion   string
	proxyURL     string
	proxyHeaders []string
	timeout      time.Duration
	connect      time.Duration
	header       time.Duration
	noGating     bool
	rps          float64
	extract      string
	debug        bool
	pretty       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sintel",
		Short:         "Query the Sintel security-intelligence API",
		Version:       client.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.LevelInfo
			if opts.debug {
				level = logging.LevelDebug
			}
			logging.Setup(logging.Config{Level: level, Pretty: opts.pretty})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiKey, "api-key", "", "API key (falls back to SINTEL_API_KEY, the config file, then a prompt)")
	flags.StringVar(&opts.scheme, "scheme", "", "API scheme (http or https)")
	flags.StringVar(&opts.host, "host", "", "API host")
	flags.IntVar(&opts.port, "port", 0, "API port")
	flags.StringVar(&opts.apiVersion, "api-version", "", "API version path segment")
	flags.StringVar(&opts.proxyURL, "proxy", "", "HTTP proxy URL, credentials in userinfo")
	flags.StringArrayVar(&opts.proxyHeaders, "proxy-header", nil, "extra proxy CONNECT header, key:value (repeatable)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "total per-call timeout (0 = unbounded)")
	flags.DurationVar(&opts.connect, "connect-timeout", 0, "connection establishment timeout")
	flags.DurationVar(&opts.header, "header-timeout", 0, "response header timeout")
	flags.BoolVar(&opts.noGating, "no-gating", false, "disable per-operation concurrency limits, including export")
	flags.Float64Var(&opts.rps, "rps", 0, "throttle overall request rate (requests per second, 0 = off)")
	flags.StringVar(&opts.extract, "extract", "", "print only this field of each record (gjson path)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.pretty, "pretty", false, "human-readable log output")

	cmd.AddCommand(
		newUserCmd(opts),
		newMyIPCmd(opts),
		newSummaryCmd(opts),
		newSimpleCmd(opts),
		newBestCmd(opts),
		newSearchCmd(opts),
		newAlertCmd(opts),
		newBulkCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// newClient resolves flags, environment and the configuration file into a
// session.
func (o *rootOptions) newClient() (*client.Client, error) {
	fileCfg := config.Load()

	cfg, err := buildClientConfig(o, fileCfg)
	if err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		key, err := promptAPIKey()
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
	}
	return client.New(cfg)
}

// buildClientConfig merges flag values over file values over defaults.
func buildClientConfig(o *rootOptions, fileCfg config.Config) (client.Config, error) {
	apiKey := o.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("SINTEL_API_KEY")
	}
	if apiKey == "" {
		apiKey = fileCfg.APIKey
	}

	cfg := client.DefaultConfig(apiKey)
	cfg.BaseURL = buildBaseURL(
		pick(o.scheme, fileCfg.Scheme, "https"),
		pick(o.host, fileCfg.Host, ""),
		pickInt(o.port, fileCfg.Port),
	)
	if v := pick(o.apiVersion, fileCfg.APIVersion, ""); v != "" {
		cfg.APIVersion = v
	}

	cfg.Timeout = pickDuration(o.timeout, fileCfg.TimeoutTotal)
	if d := pickDuration(o.connect, fileCfg.TimeoutConnect); d > 0 {
		cfg.ConnectTimeout = d
	}
	if d := pickDuration(o.header, fileCfg.TimeoutHeader); d > 0 {
		cfg.ResponseHeaderTimeout = d
	}
	cfg.DisableGating = o.noGating
	cfg.RequestsPerSecond = o.rps

	proxyURL, proxyHeaders, err := resolveProxy(o, fileCfg)
	if err != nil {
		return client.Config{}, err
	}
	cfg.ProxyURL = proxyURL
	cfg.ProxyHeaders = proxyHeaders
	return cfg, nil
}

// buildBaseURL assembles scheme://host[:port]; an empty host selects the
// default endpoint.
func buildBaseURL(scheme, host string, port int) string {
	if host == "" {
		return client.DefaultBaseURL
	}
	base := scheme + "://" + host
	if port > 0 {
		base = fmt.Sprintf("%s:%d", base, port)
	}
	return base
}

// resolveProxy builds the proxy URL from either the --proxy flag or the
// config file's split fields.
func resolveProxy(o *rootOptions, fileCfg config.Config) (*url.URL, http.Header, error) {
	headers := make(http.Header)
	for key, value := range fileCfg.ProxyHeaders {
		headers.Set(key, value)
	}
	for _, kv := range o.proxyHeaders {
		key, value, ok := strings.Cut(kv, ":")
		if !ok {
			return nil, nil, fmt.Errorf("malformed proxy header %q, want key:value", kv)
		}
		headers.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if len(headers) == 0 {
		headers = nil
	}

	if o.proxyURL != "" {
		u, err := url.Parse(o.proxyURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse proxy URL: %w", err)
		}
		return u, headers, nil
	}

	if fileCfg.ProxyHost == "" {
		return nil, headers, nil
	}
	u := &url.URL{
		Scheme: pick(fileCfg.ProxyScheme, "", "http"),
		Host:   fileCfg.ProxyHost,
	}
	if fileCfg.ProxyPort > 0 {
		u.Host = fmt.Sprintf("%s:%d", fileCfg.ProxyHost, fileCfg.ProxyPort)
	}
	if fileCfg.ProxyUsername != "" {
		u.User = url.UserPassword(fileCfg.ProxyUsername, fileCfg.ProxyPassword)
	}
	return u, headers, nil
}

func pick(flag, file, fallback string) string {
	if flag != "" {
		return flag
	}
	if file != "" {
		return file
	}
	return fallback
}

func pickInt(flag, file int) int {
	if flag > 0 {
		return flag
	}
	return file
}

func pickDuration(flag time.Duration, fileSeconds int) time.Duration {
	if flag > 0 {
		return flag
	}
	return time.Duration(fileSeconds) * time.Second
}

// promptAPIKey asks for the key interactively without echoing it.
func promptAPIKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no API key configured and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Sintel API key: ")
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}

// emit writes each record of a stream to stdout, one JSON value per line.
// With --extract only the addressed field is printed.
func (o *rootOptions) emit(seq client.ResultSeq) error {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for res, err := range seq {
		if err != nil {
			return err
		}
		if o.extract != "" {
			value := gjson.GetBytes(res.Record, o.extract)
			if !value.Exists() {
				continue
			}
			fmt.Fprintln(out, value.String())
			continue
		}
		out.Write(res.Record)
		out.WriteByte('\n')
	}
	return nil
}

// emitPages runs a paginated operation: a single page when pages is 1, or a
// walk bounded at page+pages-1 (pages = 0 walks every page the server
// reports).
func (o *rootOptions) emitPages(ctx context.Context, fetch pagination.PageFunc, page, pages int) error {
	if page <= 0 {
		page = 1
	}
	if pages == 1 {
		return o.emit(fetch(ctx, page))
	}
	last := 0
	if pages > 1 {
		last = page + pages - 1
	}
	return o.emit(pagination.Walk(ctx, fetch, page, last))
}

// readNeedles loads a bulk needle list from a file, or stdin for "-".
func readNeedles(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("file not found or not a regular file: %s", path)
	}
	return os.ReadFile(path)
}
