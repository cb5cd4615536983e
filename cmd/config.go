package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/securitytxt/internal/shared/constants"
)

const (
	defaultTimeoutSeconds  = int(constants.DefaultRequestTimeout / time.Second)
	defaultDeadlineSeconds = int(constants.DefaultFetchDeadline / time.Second)
	defaultConcurrency     = 4
	defaultRateLimit       = 5
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Defaults DefaultValues
	Batch    BatchConfig
	Serve    ServeConfig
	Cache    CacheConfig
}

// DefaultValues apply to every check, from the CLI or the API.
type DefaultValues struct {
	TimeoutSecs        int
	DeadlineSecs       int
	Strict             bool
	NoIPv6             bool
	ExpiresWarningDays int // 0 disables the expires-soon check
	Keyring            string
	Nameservers        []string
	Format             string
}

// BatchConfig tunes `check hosts` and API jobs.
type BatchConfig struct {
	Concurrency int
	RateLimit   int
	Progress    bool
	OutputDir   string
}

type ServeConfig struct {
	Addr            string
	AuthToken       string
	AuthTokenHash   string
	RateLimit       int
	RateBurst       int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	MaxJobs         int
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Defaults: DefaultValues{
			TimeoutSecs:  defaultTimeoutSeconds,
			DeadlineSecs: defaultDeadlineSeconds,
			Format:       "text",
		},
		Batch: BatchConfig{
			Concurrency: defaultConcurrency,
			RateLimit:   defaultRateLimit,
			Progress:    true,
		},
		Serve: ServeConfig{
			Addr:            "127.0.0.1:8080",
			RateLimit:       10,
			RateBurst:       20,
			ShutdownTimeout: 30 * time.Second,
			MaxJobs:         1000,
		},
		Cache: CacheConfig{
			TTL: constants.DefaultCacheTTL,
		},
	}
}

// expiresThreshold converts the configured days to the parser's optional
// threshold.
func (d DefaultValues) expiresThreshold() *int {
	if d.ExpiresWarningDays <= 0 {
		return nil
	}
	days := d.ExpiresWarningDays
	return &days
}

func (d DefaultValues) timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

func (d DefaultValues) deadline() time.Duration {
	return time.Duration(d.DeadlineSecs) * time.Second
}

// applyConfigDefaults merges config file and environment values into the
// runtime config when the user did not explicitly set the matching flag.
func applyConfigDefaults(cmd *cobra.Command) {
	flags := cmd.Flags()
	d := &cliConfig.Defaults

	if viper.IsSet("defaults.timeout_secs") {
		applyIntDefault(flags, "timeout", viper.GetInt("defaults.timeout_secs"), func(v int) { d.TimeoutSecs = v })
	}
	if viper.IsSet("defaults.deadline_secs") {
		applyIntDefault(flags, "deadline", viper.GetInt("defaults.deadline_secs"), func(v int) { d.DeadlineSecs = v })
	}
	if viper.IsSet("defaults.strict") {
		applyBoolDefault(flags, "strict", viper.GetBool("defaults.strict"), func(v bool) { d.Strict = v })
	}
	if viper.IsSet("defaults.no_ipv6") {
		applyBoolDefault(flags, "no-ipv6", viper.GetBool("defaults.no_ipv6"), func(v bool) { d.NoIPv6 = v })
	}
	if viper.IsSet("defaults.expires_warning_days") {
		applyIntDefault(flags, "expires-warning-days", viper.GetInt("defaults.expires_warning_days"), func(v int) { d.ExpiresWarningDays = v })
	}
	if viper.IsSet("defaults.keyring") {
		applyStringDefault(flags, "keyring", viper.GetString("defaults.keyring"), func(v string) { d.Keyring = v })
	}
	if viper.IsSet("defaults.format") {
		applyStringDefault(flags, "format", viper.GetString("defaults.format"), func(v string) { d.Format = v })
	}
	if viper.IsSet("defaults.nameservers") && !changed(flags, "nameserver") {
		d.Nameservers = viper.GetStringSlice("defaults.nameservers")
	}

	b := &cliConfig.Batch
	if viper.IsSet("batch.concurrency") {
		applyIntDefault(flags, "concurrency", viper.GetInt("batch.concurrency"), func(v int) { b.Concurrency = v })
	}
	if viper.IsSet("batch.rate_limit") {
		applyIntDefault(flags, "rate-limit", viper.GetInt("batch.rate_limit"), func(v int) { b.RateLimit = v })
	}

	s := &cliConfig.Serve
	if viper.IsSet("serve.addr") {
		applyStringDefault(flags, "addr", viper.GetString("serve.addr"), func(v string) { s.Addr = v })
	}
	if viper.IsSet("serve.auth_token") {
		applyStringDefault(flags, "auth-token", viper.GetString("serve.auth_token"), func(v string) { s.AuthToken = v })
	}
	if viper.IsSet("serve.auth_token_hash") {
		applyStringDefault(flags, "auth-token-hash", viper.GetString("serve.auth_token_hash"), func(v string) { s.AuthTokenHash = v })
	}
	if viper.IsSet("serve.rate_limit") {
		applyIntDefault(flags, "rate-limit", viper.GetInt("serve.rate_limit"), func(v int) { s.RateLimit = v })
	}
	if viper.IsSet("serve.rate_burst") {
		applyIntDefault(flags, "rate-burst", viper.GetInt("serve.rate_burst"), func(v int) { s.RateBurst = v })
	}

	c := &cliConfig.Cache
	if viper.IsSet("cache.redis_url") {
		applyStringDefault(flags, "redis-url", viper.GetString("cache.redis_url"), func(v string) { c.RedisURL = v })
	}
	if viper.IsSet("cache.ttl") && !changed(flags, "cache-ttl") {
		c.TTL = viper.GetDuration("cache.ttl")
	}
}

func changed(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if setter == nil || changed(flags, name) {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if setter == nil || changed(flags, name) {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if setter == nil || changed(flags, name) {
		return
	}
	setter(value)
}
