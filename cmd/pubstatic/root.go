package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/pubstatic"
	"github.com/eringen/pubstatic/internal/logging"
)

// cli carries the state shared by every command: flags, the merged
// configuration and the logger.
type cli struct {
	cfgFile  string
	logLevel string
	logFile  string

	cfg      pubstatic.SiteConfig
	logger   zerolog.Logger
	closeLog func()
}

// configKey maps a SiteConfig field to its config file key and env suffix.
type configKey struct {
	key string
	env string
	def any
}

var configKeys = []configKey{
	{"name", "NAME", "Blog"},
	{"url", "URL", "http://localhost:3000"},
	{"description", "DESCRIPTION", ""},
	{"author", "AUTHOR", ""},
	{"postsDir", "POSTS_DIR", "posts"},
	{"outputDir", "OUTPUT_DIR", "dist"},
	{"staticDir", "STATIC_DIR", "public"},
	{"addr", "ADDR", ":3000"},
	{"databasePath", "DATABASE_PATH", "data/build.db"},
	{"adminPassword", "ADMIN_PASSWORD", ""},
	{"sessionSecret", "SESSION_SECRET", ""},
	{"cookieSecure", "COOKIE_SECURE", false},
	{"summaryCacheTTL", "SUMMARY_CACHE_TTL", 5 * time.Minute},
	{"maxImageWidth", "MAX_IMAGE_WIDTH", 1600},
	{"workers", "WORKERS", 4},
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{closeLog: func() {}}

	root := &cobra.Command{
		Use:           "pubstatic",
		Short:         "pubstatic turns a directory of markdown posts into a static blog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.closeLog()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ./pubstatic.yaml)")
	flags.StringVar(&c.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	flags.StringVar(&c.logFile, "log-file", "", "write JSON logs to this file instead of stderr")
	flags.String("posts", "", "posts directory (overrides postsDir)")
	flags.String("out", "", "output directory (overrides outputDir)")

	root.AddCommand(
		newBuildCmd(c),
		newServeCmd(c),
		newListCmd(c),
		newShowCmd(c),
		newNewCmd(),
		newVersionCmd(),
	)
	return root
}

func (c *cli) initialize(cmd *cobra.Command) error {
	v := viper.New()
	for _, k := range configKeys {
		v.SetDefault(k.key, k.def)
		if err := v.BindEnv(k.key, "PUBSTATIC_"+k.env); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("posts"); f != nil {
		if err := v.BindPFlag("postsDir", f); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("out"); f != nil {
		if err := v.BindPFlag("outputDir", f); err != nil {
			return err
		}
	}

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pubstatic")
		v.SetConfigType("yaml")
	}

	logger, closer, err := logging.New(c.logLevel, c.logFile)
	if err != nil {
		return err
	}
	c.logger, c.closeLog = logger, closer

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
		c.logger.Debug().Msg("no config file found, using defaults and environment")
	} else {
		c.logger.Debug().Str("file", v.ConfigFileUsed()).Msg("using config file")
	}

	if err := v.Unmarshal(&c.cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
