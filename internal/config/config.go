// Package config binds the CLI flags of §6 through viper, in the teacher's
// package-singleton style: flags take precedence, then environment
// variables (TANGLERDB_ prefix), then defaults.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TANGLERDB"

// Keys for every flag in §6.
const (
	KeyZMQ                 = "zmq"
	KeyMySQL               = "mysql"
	KeyRetryInterval       = "retry-interval"
	KeyUpdateInterval      = "update-interval"
	KeyCalculationThreads  = "calculation-threads"
	KeyCalculationLimit    = "calculation-limit"
	KeyGenerationLimit     = "generation-limit"
	KeyMilestoneAddress    = "milestone-address"
	KeyMilestoneStartIndex = "milestone-start-index"
	KeyLogConfig           = "log-config"
	KeyVerbose             = "verbose"
	KeyMetricsAddr         = "metrics-addr"
)

// defaultMilestoneAddress is the published mainnet milestone address from
// the original implementation's app.rs.
const defaultMilestoneAddress = "KPWCHICGJZXKE9GSUDXZYUAPLHAKAHYHDXNPHENTERYMMBQOPSQIDENXKLKCEYCPVTZQLEEJVYJZV9BWU"

var v = viper.New()

// BindFlags registers every §6 flag on flags and binds it into the
// package-level viper instance, with environment override and defaults,
// in that precedence order (flags > env > defaults).
func BindFlags(flags *pflag.FlagSet) error {
	flags.String(KeyZMQ, "", "subscription endpoint, host:port (required)")
	flags.String(KeyMySQL, "", "relational store DSN (required)")
	flags.Duration(KeyRetryInterval, time.Second, "ingest retry interval on Locked")
	flags.Duration(KeyUpdateInterval, time.Second, "flush/prune scheduler tick interval")
	flags.Int(KeyCalculationThreads, 1, "number of calculate worker threads")
	flags.Int(KeyCalculationLimit, 1000, "calculate worker back-phase visit bound")
	flags.Uint32(KeyGenerationLimit, 10, "prune generation limit")
	flags.String(KeyMilestoneAddress, defaultMilestoneAddress, "milestone address")
	flags.Int(KeyMilestoneStartIndex, 62000, "milestone start index")
	flags.String(KeyLogConfig, "log4rs.yaml", "path to the logging config file")
	flags.CountP(KeyVerbose, "v", "increase log verbosity")
	flags.String(KeyMetricsAddr, "127.0.0.1:9090", "address to serve /metrics on")

	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return nil
}

func String(key string) string        { return v.GetString(key) }
func Int(key string) int              { return v.GetInt(key) }
func Uint32(key string) uint32        { return uint32(v.GetUint(key)) }
func Duration(key string) time.Duration { return v.GetDuration(key) }
func Bool(key string) bool            { return v.GetBool(key) }
