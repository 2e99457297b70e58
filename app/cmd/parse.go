package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/swarmcouncil/agents/pattern"
)

// newParseCmd runs the response parser over a saved model answer, which is
// how parser regressions get triaged.
func newParseCmd() *cobra.Command {
	var schemaName string
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract the JSON object from a saved model response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, ok := pattern.SchemaByName(strings.ToLower(schemaName))
			if !ok {
				return fmt.Errorf("unknown schema %q (want exploration|review|synthesis|proposal)", schemaName)
			}
			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			return printParse(cmd.OutOrStdout(), string(raw), schema)
		},
	}
	cmd.Flags().StringVar(&schemaName, "schema", "exploration", "Response schema (exploration|review|synthesis|proposal)")
	return cmd
}

func printParse(w io.Writer, raw string, schema pattern.Schema) error {
	parsed, err := pattern.Parse(raw, schema)
	if err != nil || !parsed.Known() {
		if err == nil {
			err = pattern.ErrUnrecognizedObject
		}
		switch schema.Name {
		case pattern.SynthesisSchema.Name:
			fmt.Fprintf(w, "strategy: none (%v)\n", err)
			return writeJSON(w, pattern.DegradedSynthesis(raw))
		case pattern.ProposalSchema.Name:
			fmt.Fprintf(w, "strategy: none (%v)\n", err)
			return writeJSON(w, pattern.DegradedProposal(raw))
		}
		return err
	}
	fmt.Fprintf(w, "strategy: %s\n", parsed.Strategy)
	if len(parsed.Missing) > 0 {
		fmt.Fprintf(w, "missing: %s\n", strings.Join(parsed.Missing, ", "))
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, parsed.Object, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
