package root

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pcat "github.com/replicate/pcat/pkg"
	"github.com/replicate/pcat/pkg/cli"
	"github.com/replicate/pcat/pkg/client"
	"github.com/replicate/pcat/pkg/config"
	"github.com/replicate/pcat/pkg/consumer"
	"github.com/replicate/pcat/pkg/download"
	"github.com/replicate/pcat/pkg/overrides"
	"github.com/replicate/pcat/pkg/progress"
	"github.com/replicate/pcat/pkg/retry"
)

const rootLongDesc = `
pcat

pcat streams a single remote object to stdout, the way cat streams a local
file. It splits the object into byte ranges and fetches many ranges in
parallel, reassembling them into one ordered stream, so a download saturates
the link even when a single connection cannot.

Objects can live behind any HTTP(S) endpoint that answers range requests, or
in S3 (s3://bucket/key), where pcat speaks the S3 API directly and can pin a
specific object version. Memory stays bounded regardless of object size:
only the chunks currently in flight are held, so piping a 100 GB object
through pcat is fine.

The output is written to stdout by default so it can be piped straight into
tar, zstd, sha256sum, or whatever comes next. Use -o to write a file
instead, and -x to transparently decompress gzip, bzip2, xz, or lz4 streams
on the way out.
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pcat [flags] <target>",
		Short: "pcat",
		Long:  rootLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.PersistentStartupProcessFlags()
		},
		RunE: runRootCMD,
		Args: cobra.ExactArgs(1),
		Example: `  pcat https://example.com/weights.bin > weights.bin
  pcat -o weights.bin s3://my-bucket/models/weights.bin`,
	}
	cmd.Flags().StringP(config.OptOutput, "o", "-", "Write the object to PATH instead of stdout")
	cmd.Flags().BoolP(config.OptForce, "f", false, "Overwrite the output path if it already exists")
	cmd.Flags().BoolP(config.OptDecompress, "x", false, "Decompress the object while writing it out")
	cmd.Flags().String(config.OptVersionID, "", "Fetch a specific S3 object version")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	err := config.AddRootPersistentFlags(cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return cmd
}

func runRootCMD(cmd *cobra.Command, args []string) error {
	// After we run through the PreRun functions we want to silence usage from being printed
	// on all errors
	cmd.SilenceUsage = true

	target := args[0]
	dest := viper.GetString(config.OptOutput)

	log.Info().Str("target", target).
		Str("dest", dest).
		Str("chunk_size", viper.GetString(config.OptChunkSize)).
		Msg("Initiating")

	if err := cli.EnsureDestinationNotExist(dest); err != nil {
		return err
	}

	if err := rootExecute(cmd.Context(), target, dest); err != nil {
		return err
	}

	return nil
}

// rootExecute is the main function of the program and encapsulates the general logic
// returns any/all errors to the caller.
func rootExecute(ctx context.Context, target, dest string) error {
	chunkSize, err := humanize.ParseBytes(viper.GetString(config.OptChunkSize))
	if err != nil {
		return fmt.Errorf("invalid chunk size: %w", err)
	}
	if chunkSize == 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	concurrency := viper.GetInt(config.OptConcurrency)
	if concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
	}
	retries := viper.GetInt(config.OptRetries)
	if retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", retries)
	}

	resolveOverrides, err := config.ResolveOverridesToMap(viper.GetStringSlice(config.OptResolve))
	if err != nil {
		return fmt.Errorf("error parsing resolve overrides: %w", err)
	}
	if tablePath := viper.GetString(config.OptResolveFile); tablePath != "" {
		table, err := overrides.ParseResolveTable(tablePath)
		if err != nil {
			return fmt.Errorf("error loading resolve table: %w", err)
		}
		// entries given directly on the command line win
		for host, addr := range resolveOverrides {
			table[host] = addr
		}
		resolveOverrides = table
	}

	clientOpts := client.Options{
		ForceHTTP2:       viper.GetBool(config.OptForceHTTP2),
		ConnectTimeout:   viper.GetDuration(config.OptConnTimeout),
		MaxRetries:       retries,
		MaxConnPerHost:   viper.GetInt(config.OptMaxConnPerHost),
		ResolveOverrides: resolveOverrides,
	}

	// --retries counts additional attempts after the first one
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = retries + 1

	tracker := progress.NewTracker()
	var sink progress.Sink = tracker
	if viper.GetBool(config.OptQuiet) {
		sink = progress.Discard{}
	}

	downloadOpts := download.Options{
		Concurrency: concurrency,
		ChunkSize:   int64(chunkSize),
		Retry:       policy,
		Progress:    sink,
		VersionID:   viper.GetString(config.OptVersionID),
		Client:      clientOpts,
	}

	getter := pcat.Getter{
		Downloader: download.GetStreamMode(downloadOpts),
		Consumer:   pickConsumer(dest),
	}

	_, _, err = getter.DownloadTarget(ctx, target, dest)
	if err != nil {
		tracker.Stop()
		return err
	}
	tracker.Finish()
	return nil
}

func pickConsumer(dest string) consumer.Consumer {
	var base consumer.Consumer
	if dest == "-" {
		base = &consumer.Stdout{}
	} else {
		base = &consumer.FileWriter{}
	}
	if viper.GetBool(config.OptForce) {
		base.EnableOverwrite()
	}
	if viper.GetBool(config.OptDecompress) {
		base = &consumer.Decompressor{Delegate: base}
	}
	return base
}
