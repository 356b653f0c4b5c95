package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/presbrey/b64/base64"
	"github.com/presbrey/b64/config"
)

type options struct {
	symbols    string
	url        bool
	noPadding  bool
	configPath string
}

// codec builds the codec selected by the flags; a config file supplies the
// defaults that explicitly set flags override.
func (o *options) codec(cmd *cobra.Command) (*base64.Codec, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("symbols") {
		if len(o.symbols) != 2 {
			return nil, fmt.Errorf("--symbols must be exactly two characters, got %q", o.symbols)
		}
		cfg.Codec.Symbol62 = o.symbols[:1]
		cfg.Codec.Symbol63 = o.symbols[1:]
	}
	if o.url {
		cfg.Codec.Symbol62, cfg.Codec.Symbol63 = "-", "_"
	}
	if o.noPadding {
		cfg.Codec.Padded = false
	}
	return cfg.NewCodec()
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 {
		// Read from stdin if no file is specified
		input, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("error reading from stdin: %w", err)
		}
		return input, nil
	}

	input, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", args[0], err)
	}
	return input, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "b64",
		Short:         "Base64 encoding and decoding utility",
		Long:          `A command-line utility for encoding and decoding Base64 with configurable 62nd/63rd symbols and optional padding.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.symbols, "symbols", "+/", "characters for alphabet indices 62 and 63")
	rootCmd.PersistentFlags().BoolVar(&opts.url, "url", false, "use the URL-safe symbols -_")
	rootCmd.PersistentFlags().BoolVar(&opts.noPadding, "no-padding", false, "omit trailing '=' padding")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("B64_CONFIG"), "config file (yaml, toml or json)")
	rootCmd.MarkFlagsMutuallyExclusive("url", "symbols")

	encodeCmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode data to Base64",
		Long:  `Encode data from stdin or a file to Base64.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := opts.codec(cmd)
			if err != nil {
				return err
			}
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), codec.EncodeToString(input))
			return nil
		},
	}

	decodeCmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode Base64 data",
		Long:  `Decode Base64 data from stdin or a file to its original format.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := opts.codec(cmd)
			if err != nil {
				return err
			}
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			decoded, err := codec.DecodeString(trimNewlines(string(input)))
			if err != nil {
				return fmt.Errorf("error decoding Base64 data: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(decoded)
			return err
		},
	}

	lengthCmd := &cobra.Command{
		Use:   "length",
		Short: "Compute encoded or decoded lengths",
	}

	encodedLengthCmd := &cobra.Command{
		Use:   "encoded N",
		Short: "Print the encoded length of N input bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("N must be a non-negative integer, got %q", args[0])
			}
			codec, err := opts.codec(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.EncodedLength(n))
			return nil
		},
	}

	decodedLengthCmd := &cobra.Command{
		Use:   "decoded TEXT",
		Short: "Print the number of bytes encoded by TEXT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := opts.codec(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.DecodedLenString(args[0]))
			return nil
		},
	}

	lengthCmd.AddCommand(encodedLengthCmd, decodedLengthCmd)
	rootCmd.AddCommand(encodeCmd, decodeCmd, lengthCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// trimNewlines removes trailing newlines from a string
func trimNewlines(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
