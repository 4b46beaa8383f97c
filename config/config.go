package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigDepth          = "depth"
	ConfigDepth2         = "depth2"
	ConfigSeed           = "seed"
	ConfigShuffle        = "shuffle"
	ConfigPruning        = "pruning"
	ConfigDebug          = "debug"
	ConfigCPUProfile     = "cpu-profile"
	ConfigMemProfile     = "mem-profile"
	ConfigNodeBudget     = "node-budget"
	ConfigMemoryFraction = "memory-fraction"
	ConfigGames          = "games"
	ConfigThreads        = "threads"
	ConfigResultsDB      = "results-db"
	ConfigLogFile        = "log-file"
	ConfigHumanFirst     = "human-first"
	ConfigMetricsAddr    = "metrics-addr"
	ConfigFile           = "config-file"
)

// nodeFootprint is a rough size of one graph node with its table entry and
// child links, in bytes.
const nodeFootprint = 160

var ErrBadSetting = errors.New("bad setting")

// Config holds the settings of the fourgraph programs. Values come from
// flags, FOURGRAPH_* environment variables and an optional YAML file, in
// that order of precedence.
type Config struct {
	*viper.Viper

	args []string
}

func newConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.SetDefault(ConfigDepth, 7)
	c.SetDefault(ConfigDepth2, 0)
	c.SetDefault(ConfigSeed, 0)
	c.SetDefault(ConfigShuffle, true)
	c.SetDefault(ConfigPruning, true)
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigNodeBudget, 0)
	c.SetDefault(ConfigMemoryFraction, 0.25)
	c.SetDefault(ConfigGames, 100)
	c.SetDefault(ConfigThreads, 4)
	c.SetDefault(ConfigResultsDB, "")
	c.SetDefault(ConfigLogFile, "")
	c.SetDefault(ConfigHumanFirst, true)
	c.SetDefault(ConfigMetricsAddr, "")
	return c
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return newConfig()
}

// Load reads the settings from the command line args, the environment and
// the config file named by --config-file, if any. Arguments that are not
// flags are left for the caller in Args.
func (c *Config) Load(args []string) error {
	c.Viper = newConfig().Viper

	fs := pflag.NewFlagSet("fourgraph", pflag.ContinueOnError)
	fs.Int(ConfigDepth, 7, "search depth in plies")
	fs.Int(ConfigDepth2, 0, "self-play search depth of the second player; 0 uses depth")
	fs.Uint64(ConfigSeed, 0, "seed for the move order; 0 picks one at random")
	fs.Bool(ConfigShuffle, true, "shuffle the move order")
	fs.Bool(ConfigPruning, true, "use alpha-beta pruning")
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a memory profile to this file")
	fs.Int(ConfigNodeBudget, 0, "collect garbage once the graph holds more nodes than this; 0 sizes it from memory")
	fs.Float64(ConfigMemoryFraction, 0.25, "share of physical memory the graph may use when node-budget is 0")
	fs.Int(ConfigGames, 100, "number of self-play games")
	fs.Int(ConfigThreads, 4, "number of self-play workers")
	fs.String(ConfigResultsDB, "", "sqlite file where self-play games are saved")
	fs.String(ConfigLogFile, "", "file where self-play turns are logged as CSV")
	fs.Bool(ConfigHumanFirst, true, "the human moves first in new games")
	fs.String(ConfigMetricsAddr, "", "serve prometheus metrics on this address, e.g. :9090")
	fs.String(ConfigFile, "", "YAML file with settings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("FOURGRAPH")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if f := c.GetString(ConfigFile); f != "" {
		c.SetConfigFile(f)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %v: %w", f, err)
		}
	}
	return c.validate()
}

// Args returns the arguments left after the flags.
func (c *Config) Args() []string {
	return c.args
}

func (c *Config) validate() error {
	if c.GetInt(ConfigDepth) < 1 {
		return fmt.Errorf("%w: %v must be at least 1", ErrBadSetting, ConfigDepth)
	}
	if c.GetInt(ConfigDepth2) < 0 {
		return fmt.Errorf("%w: %v must not be negative", ErrBadSetting, ConfigDepth2)
	}
	if c.GetInt(ConfigThreads) < 1 {
		return fmt.Errorf("%w: %v must be at least 1", ErrBadSetting, ConfigThreads)
	}
	if f := c.GetFloat64(ConfigMemoryFraction); f <= 0 || f > 1 {
		return fmt.Errorf("%w: %v must be in (0, 1]", ErrBadSetting, ConfigMemoryFraction)
	}
	return nil
}

// AdjustRelativePaths makes the file settings relative to basepath when
// they are not absolute.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigResultsDB, ConfigLogFile} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basepath, p))
	}
}

// NodeBudget returns how many graph nodes may be kept before garbage is
// collected.
func (c *Config) NodeBudget() int {
	if n := c.GetInt(ConfigNodeBudget); n > 0 {
		return n
	}
	total := memory.TotalMemory()
	if total == 0 {
		log.Warn().Msg("could not read total memory; using 1 GB")
		total = 1 << 30
	}
	budget := int(float64(total) * c.GetFloat64(ConfigMemoryFraction) / nodeFootprint)
	log.Debug().Uint64("total-memory", total).Int("node-budget", budget).Msg("sized-node-budget")
	return budget
}

// SanitizedSettings renders the settings as YAML.
func (c *Config) SanitizedSettings() string {
	out, err := yaml.Marshal(c.AllSettings())
	if err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}
	return string(out)
}
