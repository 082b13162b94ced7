package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/replicate/pcat/pkg/logging"
)

// Defaults for the transfer-shaping options. Concurrency and chunk size
// together bound how much payload can be in memory at once.
const (
	DefaultConcurrency = 10
	DefaultChunkSize   = "8MB"
	DefaultRetries     = 2
	DefaultConnTimeout = 5 * time.Second
)

func AddRootPersistentFlags(cmd *cobra.Command) error {
	// Persistent Flags (applies to all commands/subcommands)
	cmd.PersistentFlags().IntP(OptConcurrency, "c", DefaultConcurrency, "Maximum number of chunks fetched concurrently")
	cmd.PersistentFlags().String(OptChunkSize, DefaultChunkSize, "Byte range size each fetch requests (e.g. 8MB)")
	cmd.PersistentFlags().Duration(OptConnTimeout, DefaultConnTimeout, "Timeout for establishing a connection, format is <number><unit>, e.g. 10s")
	cmd.PersistentFlags().IntP(OptRetries, "r", DefaultRetries, "Number of additional attempts for a chunk after a transient failure")
	cmd.PersistentFlags().BoolP(OptQuiet, "q", false, "Suppress progress reporting")
	cmd.PersistentFlags().StringSlice(OptResolve, []string{}, "Resolve hostnames to specific IPs")
	cmd.PersistentFlags().String(OptResolveFile, "", "JSON file of host:port to addr:port resolve overrides")
	cmd.PersistentFlags().BoolP(OptVerbose, "v", false, "Verbose mode (equivalent to --log-level debug)")
	cmd.PersistentFlags().String(OptLoggingLevel, "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool(OptForceHTTP2, false, "Force HTTP/2")
	cmd.PersistentFlags().Int(OptMaxConnPerHost, 0, "Maximum number of connections per host")

	viper.SetEnvPrefix("PCAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind persistent flags: %w", err)
	}

	// Hide flags from help, these are intended to be used for testing/internal benchmarking/debugging only
	for _, flag := range []string{OptForceHTTP2, OptMaxConnPerHost} {
		if err := cmd.PersistentFlags().MarkHidden(flag); err != nil {
			return fmt.Errorf("failed to hide flag %s: %w", flag, err)
		}
	}

	return nil
}

func PersistentStartupProcessFlags() error {
	if viper.GetBool(OptVerbose) {
		viper.Set(OptLoggingLevel, "debug")
	}
	setLogLevel(viper.GetString(OptLoggingLevel))
	return nil
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ResolveOverridesToMap converts the `--resolve` argument values into a map of
// host:port to addr:port, suitable for overriding DNS lookups in the dialer.
func ResolveOverridesToMap(resolveOverrides []string) (map[string]string, error) {
	logger := logging.GetLogger()
	if len(resolveOverrides) == 0 {
		return nil, nil
	}

	resolveOverrideMap := make(map[string]string)
	for _, resolveHost := range resolveOverrides {
		split := strings.SplitN(resolveHost, ":", 3)
		if len(split) != 3 {
			return nil, fmt.Errorf("invalid resolve host format, expected <hostname>:port:<ip>, got: %s", resolveHost)
		}
		host, port, addr := split[0], split[1], split[2]
		if net.ParseIP(host) != nil {
			return nil, fmt.Errorf("invalid hostname specified, looks like an IP address: %s", host)
		}
		hostPort := net.JoinHostPort(host, port)
		if override, ok := resolveOverrideMap[hostPort]; ok {
			if override == net.JoinHostPort(addr, port) {
				// duplicate entry, ignore
				continue
			}
			return nil, fmt.Errorf("duplicate host:port specified: %s", host)
		}
		if net.ParseIP(addr) == nil {
			return nil, fmt.Errorf("invalid IP address: %s", addr)
		}
		resolveOverrideMap[hostPort] = net.JoinHostPort(addr, port)
	}
	if logger.GetLevel() == zerolog.DebugLevel {
		for key, elem := range resolveOverrideMap {
			logger.Debug().Str("host_port", key).Str("resolve_target", elem).Msg("Config")
		}
	}
	return resolveOverrideMap, nil
}
