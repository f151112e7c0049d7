// Command jsonpatch applies, validates, diffs and reads RFC 6902 JSON Patch
// documents from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	jsonpatch "github.com/agentflare-ai/go-jsonpatch"
	"github.com/agentflare-ai/go-jsonpatch/internal/log"
)

var logger = log.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("%s", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jsonpatch",
		Short:         "Apply, diff and validate RFC 6902 JSON Patch documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "override JSONPATCH_LOG_LEVEL for this invocation")
	viper.SetEnvPrefix("jsonpatch")
	viper.AutomaticEnv()

	root.AddCommand(newApplyCmd(), newDiffCmd(), newValidateCmd(), newGetCmd())
	return root
}

func bindLogLevel(flags *pflag.FlagSet) {
	if level, _ := flags.GetString("log-level"); level != "" {
		os.Setenv("JSONPATCH_LOG_LEVEL", level)
		logger = log.New()
	}
}

func readDocument(path string) (any, error) {
	b, err := readAll(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}

func readPatch(path string) (jsonpatch.Patch, error) {
	b, err := readAll(path)
	if err != nil {
		return nil, err
	}
	var patch jsonpatch.Patch
	if err := json.Unmarshal(b, &patch); err != nil {
		return nil, fmt.Errorf("decode patch %s: %w", path, err)
	}
	return patch, nil
}

func readAll(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return readStdin()
	}
	return os.ReadFile(path)
}

func readStdin() ([]byte, error) {
	b := make([]byte, 0, 4096)
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		b = append(b, buf[:n]...)
		if err != nil {
			break
		}
	}
	return b, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newApplyCmd() *cobra.Command {
	var mutate, skipValidate bool
	cmd := &cobra.Command{
		Use:   "apply <document> <patch>",
		Short: "Apply a JSON Patch sequence to a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindLogLevel(cmd.Flags())
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			patch, err := readPatch(args[1])
			if err != nil {
				return err
			}
			opts := jsonpatch.ApplyOptions{Validate: !skipValidate, Mutate: mutate, BanProto: true}
			result, err := jsonpatch.ApplyPatch(doc, patch, opts)
			if err != nil {
				return err
			}
			logger.Debugf("applied %d operations", len(patch))
			return writeJSON(result.Document)
		},
	}
	cmd.Flags().BoolVar(&mutate, "mutate", false, "mutate the input document in place instead of cloning it")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "skip per-operation validation before applying")
	return cmd
}

func newDiffCmd() *cobra.Command {
	var invertible bool
	cmd := &cobra.Command{
		Use:   "diff <old-document> <new-document>",
		Short: "Synthesize a JSON Patch transforming old-document into new-document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindLogLevel(cmd.Flags())
			a, err := readDocument(args[0])
			if err != nil {
				return err
			}
			b, err := readDocument(args[1])
			if err != nil {
				return err
			}
			patch := jsonpatch.Compare(a, b, invertible)
			logger.Debugf("computed %d operations (invertible=%v)", len(patch), invertible)
			return writeJSON(patch)
		},
	}
	cmd.Flags().BoolVar(&invertible, "invertible", false, "prepend a test before every mutating operation")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var docPath string
	cmd := &cobra.Command{
		Use:   "validate <patch>",
		Short: "Validate a JSON Patch sequence, optionally against a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindLogLevel(cmd.Flags())
			patch, err := readPatch(args[0])
			if err != nil {
				return err
			}
			var doc any
			if docPath != "" {
				doc, err = readDocument(docPath)
				if err != nil {
					return err
				}
			}
			jsonpatch.SetLogger(logger)
			if err := jsonpatch.Validate(patch, doc, nil); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&docPath, "document", "", "document to validate the patch against (- for stdin)")
	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <document> <pointer>",
		Short: "Resolve an RFC 6901 JSON Pointer against a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindLogLevel(cmd.Flags())
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			v, err := jsonpatch.GetValueByPointer(doc, args[1])
			if err != nil {
				return err
			}
			return writeJSON(v)
		},
	}
	return cmd
}
