package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/viewbindgen/internal/parser"
)

const levelTrace = slog.Level(-8)

var (
	configFiles    []string
	level, version string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "viewbindgen",
	Short:         "generate view and viewmodel bindings",
	Long:          "Scan annotated view types and generate their binding code and viewmodel primitives",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("viewbindgen failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&level, "level", "l", "info", "log level (trace, debug, info, warn, error, debug+1, etc)")
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", []string{}, "config file(s) - multiple config files are merged with last specified file having highest priority")
}

func parseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return levelTrace, nil
	}
	var ll slog.Level
	err := (&ll).UnmarshalText([]byte(s))
	return ll, err
}

func setLogger(ll slog.Level) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: false,
		Level:     ll,
	}))
	slog.SetDefault(l)
	return l
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	ll, err := parseLevel(level)
	if err != nil {
		panic("invalid log level: " + level)
	}
	l := setLogger(ll)

	if len(configFiles) > 0 {
		// Use config file from the flag.
		viper.SetConfigFile(configFiles[0])
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("VIEWBIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		l.With("config", viper.ConfigFileUsed()).Debug("using config file(s)")
	} else {
		l.With("error", err, "config", viper.ConfigFileUsed()).Debug("unable to use config file(s)")
	}
	if len(configFiles) > 1 {
		for _, file := range configFiles[1:] {
			if configBytes, err := os.ReadFile(file); err == nil {
				if err = viper.MergeConfig(bytes.NewReader(configBytes)); err != nil {
					l.With("error", err, "file", file).Warn("failed to merge config file")
				} else {
					l.With("file", file).Debug("merged config file")
				}
			}
		}
	}
	if len(version) > 0 {
		viper.Set("version", version)
	}

	// The flag wins when given; otherwise common.log.level may lower or raise it.
	if llstr := viper.GetString("common.log.level"); llstr != "" && !rootCmd.PersistentFlags().Changed("level") {
		cl, err := parseLevel(llstr)
		if err != nil {
			panic("invalid log level: " + llstr)
		}
		setLogger(cl)
	}
}

// optionKeys maps config keys onto the generation flags.
var optionKeys = map[string]string{
	"in_dir":            "in",
	"runtime_pkg":       "runtime-pkg",
	"private_prefix":    "private-prefix",
	"tag_key":           "tag-key",
	"directive_prefix":  "directive-prefix",
	"localizer_type":    "localizer-type",
	"manifest":          "manifest",
	"exclude_views":     "exclude-views",
	"header":            "header",
	"allow_diagnostics": "allow-diagnostics",
}

// addOptionFlags registers the shared generation flags on c.
func addOptionFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringP("in", "i", ".", "module directory to scan")
	f.String("runtime-pkg", "", "import path of the reactive runtime (default "+parser.NewOptions().Runtime+")")
	f.String("private-prefix", "", "prefix for synthesized private identifiers")
	f.String("tag-key", parser.DefaultTagKey, "struct tag key carrying field directives")
	f.String("directive-prefix", parser.DefaultDirectivePrefix, "comment prefix for type and method directives")
	f.String("localizer-type", parser.DefaultLocalizerType, "localization provider type, bare or import/path.Type")
	f.String("manifest", parser.DefaultManifest, "manifest of generated files, relative to --in")
	f.StringSlice("exclude-views", nil, "annotated types to skip (case-insensitive)")
	f.String("header", "", "extra comment line under the generated-code banner")
	f.Bool("allow-diagnostics", false, "exit zero even when diagnostics were reported")
}

// loadOptions binds the flags of the running command c and builds parser
// options from flags, config files and the environment, in viper's
// precedence order.
func loadOptions(c *cobra.Command) (*parser.Options, error) {
	for key, flag := range optionKeys {
		if err := viper.BindPFlag(key, c.Flags().Lookup(flag)); err != nil {
			return nil, errors.Wrapf(err, "bind --%s", flag)
		}
	}
	o := parser.NewOptions()
	if err := viper.Unmarshal(o); err != nil {
		return nil, err
	}
	o.Normalize()
	return o, nil
}
