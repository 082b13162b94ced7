package config

// Command line option names, shared between flag registration and viper lookups.
const (
	OptChunkSize      = "chunk-size"
	OptConcurrency    = "concurrency"
	OptConnTimeout    = "connect-timeout"
	OptDecompress     = "decompress"
	OptForce          = "force"
	OptForceHTTP2     = "force-http2"
	OptLoggingLevel   = "log-level"
	OptMaxConnPerHost = "max-conn-per-host"
	OptOutput         = "output"
	OptQuiet          = "quiet"
	OptResolve        = "resolve"
	OptResolveFile    = "resolve-file"
	OptRetries        = "retries"
	OptVerbose        = "verbose"
	OptVersionID      = "version-id"
)
