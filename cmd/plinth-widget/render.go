package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/plinth-cms/plinth/internal/config"
	"github.com/plinth-cms/plinth/internal/embed"
	"github.com/plinth-cms/plinth/internal/embed/htmldom"
	"github.com/plinth-cms/plinth/internal/httpclient"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const userAgent = "plinth-widget-cli"

// skeleton is the document rendered into when no --input is given.
const skeleton = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Plinth widget</title></head>
<body><div id="%s"></div></body></html>
`

type renderOptions struct {
	websiteID    string
	apiURL       string
	theme        string
	layout       string
	perPage      int
	openInNewTab bool
	page         int
	search       string
	category     string
	tags         []string
	container    string
	input        string
	output       string
	auto         bool
	verbose      bool
}

func newRenderCmd(configPath *string) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [widget-id]",
		Short: "Render a widget into an HTML document",
		Long: `Render a widget into an HTML document and print the result.

Without --input the widget is rendered into an empty page. With --input the
given HTML file is used; pass --auto to render every element carrying
data-plinth-widget instead of a single widget.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			applyConfigDefaults(cmd, &opts, cfg)

			widgetID := ""
			if len(args) == 1 {
				widgetID = args[0]
			}
			if widgetID == "" && !opts.auto {
				return errors.New("widget id is required unless --auto is set")
			}

			client, err := httpclient.FromClientConfig(cfg, userAgent)
			if err != nil {
				return fmt.Errorf("create http client: %w", err)
			}
			defer client.CloseIdleConnections()

			out := cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			return runRender(out, client, widgetID, opts, newLogger(cmd.ErrOrStderr(), opts.verbose))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.websiteID, "website", "", "website id (default from config)")
	f.StringVar(&opts.apiURL, "api-url", "", "Plinth API URL (default from config)")
	f.StringVar(&opts.theme, "theme", "", "theme override: light, dark or auto")
	f.StringVar(&opts.layout, "layout", "", "layout override: grid, list or cards")
	f.IntVar(&opts.perPage, "per-page", 0, "items per page")
	f.BoolVar(&opts.openInNewTab, "new-tab", false, "open content links in a new tab")
	f.IntVar(&opts.page, "page", 1, "page to render")
	f.StringVar(&opts.search, "search", "", "search text")
	f.StringVar(&opts.category, "category", "", "category filter")
	f.StringSliceVar(&opts.tags, "tags", nil, "tag filter (comma-separated)")
	f.StringVar(&opts.container, "container", "plinth-widget", "id of the container element")
	f.StringVarP(&opts.input, "input", "i", "", "HTML file to render into")
	f.StringVarP(&opts.output, "output", "o", "", "write the document to a file instead of stdout")
	f.BoolVar(&opts.auto, "auto", false, "render every marked container in the input")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log runtime activity to stderr")

	return cmd
}

// applyConfigDefaults fills options the user did not pass from the config file.
func applyConfigDefaults(cmd *cobra.Command, opts *renderOptions, cfg *config.ClientConfig) {
	flags := cmd.Flags()
	if opts.apiURL == "" {
		opts.apiURL = cfg.APIURL
	}
	if opts.websiteID == "" {
		opts.websiteID = cfg.WebsiteID
	}
	if opts.theme == "" {
		opts.theme = cfg.Theme
	}
	if opts.layout == "" {
		opts.layout = cfg.Layout
	}
	if opts.perPage == 0 {
		opts.perPage = cfg.ItemsPerPage
	}
	if !flags.Changed("new-tab") {
		opts.openInNewTab = cfg.OpenInNewTab
	}
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// runRender hosts the embed runtime in a parsed document, waits for every
// widget to settle, and writes the resulting document to out.
func runRender(out io.Writer, client *http.Client, widgetID string, opts renderOptions, logger zerolog.Logger) error {
	doc, err := openDocument(opts, htmldom.NewHTTPFetcher(client), logger)
	if err != nil {
		return err
	}

	reg := embed.NewRegistry(doc, embed.Config{APIURL: opts.apiURL})

	var instances []*embed.Instance
	if opts.auto {
		instances = reg.AutoInit()
		if len(instances) == 0 {
			return errors.New("no widget containers found in the document")
		}
	} else {
		cfg := embed.Config{
			WidgetID:     widgetID,
			WebsiteID:    opts.websiteID,
			ContainerID:  opts.container,
			Theme:        opts.theme,
			Layout:       opts.layout,
			ItemsPerPage: opts.perPage,
			OpenInNewTab: opts.openInNewTab,
			Category:     opts.category,
			Tags:         opts.tags,
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if doc.FindElement(opts.container) == nil {
			return fmt.Errorf("%w: %q", embed.ErrContainerNotFound, opts.container)
		}

		inst := reg.Render(cfg)
		if inst == nil {
			return errors.New("widget could not be started")
		}
		inst.Wait()
		if inst.State() == embed.StateRendered {
			if opts.search != "" {
				inst.Search(opts.search)
				inst.Wait()
			}
			if opts.page > 1 {
				inst.GoToPage(opts.page)
				inst.Wait()
			}
		}
		instances = append(instances, inst)
	}
	reg.Wait()

	var errs []error
	for _, inst := range instances {
		if inst.State() == embed.StateError {
			errs = append(errs, fmt.Errorf("widget in #%s: %w", inst.ContainerID(), inst.Err()))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	return doc.Render(out)
}

func openDocument(opts renderOptions, fetcher htmldom.Fetcher, logger zerolog.Logger) (*htmldom.Document, error) {
	if opts.input == "" {
		return htmldom.ParseString(fmt.Sprintf(skeleton, html.EscapeString(opts.container)), fetcher, logger)
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return htmldom.Parse(f, fetcher, logger)
}

func newCSSCmd(configPath *string) *cobra.Command {
	var variables bool

	cmd := &cobra.Command{
		Use:   "css [website-id]",
		Short: "Print the generated brand stylesheet of a website",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			websiteID := cfg.WebsiteID
			if len(args) == 1 {
				websiteID = args[0]
			}
			if websiteID == "" {
				return errors.New("website id is required (argument or website_id in config)")
			}

			client, err := httpclient.FromClientConfig(cfg, userAgent)
			if err != nil {
				return fmt.Errorf("create http client: %w", err)
			}
			defer client.CloseIdleConnections()

			return fetchStylesheet(cmd.Context(), cmd.OutOrStdout(), client, cfg.APIURL, websiteID, variables)
		},
	}

	cmd.Flags().BoolVar(&variables, "variables", false, "print the CSS variables as JSON instead")
	return cmd
}

// fetchStylesheet copies the website's stylesheet, or its variables, to out.
func fetchStylesheet(ctx context.Context, out io.Writer, client *http.Client, apiURL, websiteID string, variables bool) error {
	endpoint := "/css"
	if variables {
		endpoint = "/variables"
	}
	u := strings.TrimSuffix(apiURL, "/") + "/api/brand/" + url.PathEscape(websiteID) + endpoint

	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &embed.NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&env)
		return &embed.HTTPError{URL: u, StatusCode: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("read stylesheet: %w", err)
	}
	return nil
}
