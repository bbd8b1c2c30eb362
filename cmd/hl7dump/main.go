// Command hl7dump prints the segments, fields and components of HL7v2
// messages read from files or stdin.
//
// Usage:
//
//	hl7dump message.hl7
//	hl7dump -s 3 message.hl7        # labeled fields of the third segment
//	hl7dump -s 3 -f 5 message.hl7   # components of PID-5
//	pbpaste | hl7dump --json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/arcward/edhl7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

type dumpOptions struct {
	verbose    bool
	jsonOutput bool
	labelsPath string
	segment    int
	field      int
}

func newRootCmd() *cobra.Command {
	opts := &dumpOptions{}
	cmd := &cobra.Command{
		Use:   "hl7dump [file...]",
		Short: "Decompose HL7v2 messages into segments, fields and components",
		Long: `Reads HL7v2 message text from each file (or stdin when no file or "-" is
given) and lists its segments.

With --segment, the labeled fields of that segment are listed instead, and
with --segment and --field, the components of that field. Segment and field
numbers are 1-based; MSH-1 is the field separator.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, opts, args)
		},
	}
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the parsed message as JSON")
	cmd.Flags().StringVar(&opts.labelsPath, "labels", "", "YAML file of field labels to merge over the built-in labels")
	cmd.Flags().IntVarP(&opts.segment, "segment", "s", 0, "List the fields of this segment (1-based)")
	cmd.Flags().IntVarP(&opts.field, "field", "f", 0, "List the components of this field of --segment (1-based)")
	return cmd
}

func runDump(cmd *cobra.Command, opts *dumpOptions, args []string) error {
	if opts.field != 0 && opts.segment == 0 {
		return fmt.Errorf("--field requires --segment")
	}

	readerOpts := []edhl7.ReaderOption{edhl7.WithLogger(logger)}
	if opts.labelsPath != "" {
		labels, err := loadLabels(opts.labelsPath)
		if err != nil {
			return err
		}
		readerOpts = append(readerOpts, edhl7.WithLabels(labels))
	}
	reader := edhl7.NewReader(readerOpts...)

	if len(args) == 0 {
		args = []string{"-"}
	}
	out := cmd.OutOrStdout()
	for i, name := range args {
		result, err := readMessage(cmd, reader, name)
		if err != nil {
			return err
		}
		logger.Debug(
			"read message",
			zap.String("source", name),
			zap.Int("segments", result.Len()),
		)
		if len(args) > 1 && !opts.jsonOutput {
			if i > 0 {
				_, _ = fmt.Fprintln(out)
			}
			_, _ = fmt.Fprintf(out, "==> %s <==\n", name)
		}
		if err := writeResult(out, result, opts); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func loadLabels(path string) (*edhl7.LabelTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening labels: %w", err)
	}
	defer f.Close()
	labels, err := edhl7.LoadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}

func readMessage(cmd *cobra.Command, reader *edhl7.Reader, name string) (*edhl7.ParseResult, error) {
	if name == "-" {
		return reader.ReadFrom(cmd.InOrStdin())
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return reader.ReadFrom(f)
}

func writeResult(out io.Writer, result *edhl7.ParseResult, opts *dumpOptions) error {
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch {
	case opts.segment == 0:
		_, _ = fmt.Fprintln(w, "#\tSEGMENT\tFIELDS")
		for _, seg := range result.Segments {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", seg.DisplayIndex(), seg.Name, seg.Len())
		}
	case opts.field == 0:
		seg := result.Segment(opts.segment - 1)
		if seg == nil {
			return fmt.Errorf("no segment %d (message has %d)", opts.segment, result.Len())
		}
		_, _ = fmt.Fprintln(w, "IDX\tDESCRIPTION\tVALUE")
		for _, f := range seg.LabeledFields() {
			_, _ = fmt.Fprintf(w, "%s.%d\t%s\t%s\n", seg.Name, f.Number, f.Label, f.Value)
		}
	default:
		seg := result.Segment(opts.segment - 1)
		if seg == nil {
			return fmt.Errorf("no segment %d (message has %d)", opts.segment, result.Len())
		}
		components := seg.Components(opts.field)
		if len(components) == 0 {
			return fmt.Errorf("%s has no field %d (segment has %d)", seg.Name, opts.field, seg.Len())
		}
		_, _ = fmt.Fprintln(w, "#\tVALUE")
		for _, c := range components {
			_, _ = fmt.Fprintf(w, "%d\t%s\n", c.Index, c.Value)
		}
	}
	return w.Flush()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
