// Command cmsctl edits and publishes the landing page content from a
// terminal. It talks to the landingcms server with the API key and keeps a
// local copy of the last loaded document.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/curelo/landingcms/internal/cms/contentstore"
	"github.com/curelo/landingcms/internal/cms/gateway"
	"github.com/curelo/landingcms/internal/cms/imagecompress"
	"github.com/curelo/landingcms/internal/cms/localcache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries the state shared by all subcommands.
type cli struct {
	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg    *Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "cmsctl",
		Short: "Edit and publish landing page content",
		Long: `cmsctl loads the site document from a landingcms server, edits pages
and sections, and publishes the result. Embedded images are compressed
before every publish.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default is ./cmsctl.yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	pf.String("server", "http://localhost:8080", "landingcms server URL")
	pf.String("api-key", "", "API key for publishing")
	pf.String("cache-dir", "", "Local cache directory (default ~/.landingcms/cache)")
	pf.Bool("no-cache", false, "Do not use the local cache")
	pf.Int("image-max-width", 1200, "Longest edge of embedded images after compression")
	pf.Int("image-quality", 60, "JPEG quality for compressed images (1-100)")

	_ = c.v.BindPFlag("server", pf.Lookup("server"))
	_ = c.v.BindPFlag("api_key", pf.Lookup("api-key"))
	_ = c.v.BindPFlag("cache_dir", pf.Lookup("cache-dir"))
	_ = c.v.BindPFlag("no_cache", pf.Lookup("no-cache"))
	_ = c.v.BindPFlag("image.max_width", pf.Lookup("image-max-width"))
	_ = c.v.BindPFlag("image.quality", pf.Lookup("image-quality"))

	root.AddCommand(
		c.pullCmd(),
		c.pagesCmd(),
		c.editCmd(),
		c.publishCmd(),
		c.usersCmd(),
		c.cacheCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := newLogger(c.verbose, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.logger = logger
	return nil
}

// newLogger returns a development logger when verbose, and otherwise a
// console logger that only reports warnings and errors.
func newLogger(verbose bool, w io.Writer) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapcore.WarnLevel)
	return zap.New(core), nil
}

// openStore builds a content store against the configured server and loads
// the current document. A failed load is returned as an error: editing a
// stale cached copy and publishing it would overwrite newer content.
func (c *cli) openStore(ctx context.Context) (*contentstore.Store, func(), error) {
	gw := gateway.NewClient(gateway.Options{
		BaseURL: c.cfg.Server,
		APIKey:  c.cfg.APIKey,
		Logger:  c.logger,
	})
	opts := contentstore.Options{
		Compressor: imagecompress.New(c.cfg.Image.MaxWidth, c.cfg.Image.Quality, c.logger),
		Logger:     c.logger,
	}

	closeFn := func() {}
	if !c.cfg.NoCache {
		cache, err := localcache.Open(localcache.Options{Directory: c.cfg.CacheDir})
		if err != nil {
			c.logger.Warn("local cache unavailable; continuing without it", zap.Error(err))
		} else {
			opts.Cache = cache
			closeFn = func() {
				if err := cache.Close(); err != nil {
					c.logger.Warn("closing local cache", zap.Error(err))
				}
			}
		}
	}

	store := contentstore.New(ctx, gw, opts)
	if err := store.Load(ctx); err != nil {
		closeFn()
		if gateway.IsStatus(err, http.StatusNotFound) {
			return nil, nil, fmt.Errorf("no landingcms API at %s (check --server): %w", c.cfg.Server, err)
		}
		return nil, nil, fmt.Errorf("load content from %s: %w", c.cfg.Server, err)
	}
	return store, closeFn, nil
}

// publish writes the store through the gateway and turns a failed
// PublishResult into an error.
func (c *cli) publish(ctx context.Context, cmd *cobra.Command, store *contentstore.Store) error {
	res := store.Publish(ctx)
	if !res.Success {
		return fmt.Errorf("publish failed: %s", res.Error)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "published")
	return nil
}
