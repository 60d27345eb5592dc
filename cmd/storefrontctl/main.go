package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"storefront-backend/internal/apiclient"
	"storefront-backend/internal/cart"
)

var Version = "dev"

type options struct {
	api      string
	token    string
	cartDir  string
	timeout  time.Duration
	logLevel string
}

func (o *options) logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	l.SetLevel(level)
	return l
}

func (o *options) client() *apiclient.Client {
	return apiclient.New(o.api, o.token, o.timeout, o.logger())
}

func (o *options) cartStore() (*cart.Store, error) {
	return cart.NewStore(cart.NewFileStorage(o.cartDir), o.logger())
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultCartDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Storefront client: local cart, checkout and catalog seeding",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.api, "api", envOr("STOREFRONT_API", "http://localhost:8080"), "storefront API base URL")
	pf.StringVar(&opts.token, "token", os.Getenv("STOREFRONT_TOKEN"), "bearer token")
	pf.StringVar(&opts.cartDir, "cart-dir", defaultCartDir(), "directory holding cart.json")
	pf.DurationVar(&opts.timeout, "timeout", 15*time.Second, "HTTP timeout")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(cartCmd(opts))
	rootCmd.AddCommand(checkoutCmd(opts))
	rootCmd.AddCommand(verifyCmd(opts))
	rootCmd.AddCommand(seedCmd(opts))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
