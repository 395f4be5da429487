package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stupidea/internal/tokenize"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print how each line of a file is tokenized",
	Long: `Print the tokens the highlighter sends to the model, one source line per
output line. Blank lines are marked and never sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0]) //nolint:gosec // G304: user selected source file
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		return printTokens(cmd.OutOrStdout(), string(data))
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func printTokens(w io.Writer, text string) error {
	for i, line := range strings.Split(text, "\n") {
		if tokenize.IsBlank(line) {
			if _, err := fmt.Fprintf(w, "%4d  (blank)\n", i+1); err != nil {
				return err
			}
			continue
		}
		tokens := tokenize.Tokenize(line)
		quoted := make([]string, len(tokens))
		for j, tok := range tokens {
			quoted[j] = strconv.Quote(tok)
		}
		if _, err := fmt.Fprintf(w, "%4d  %s\n", i+1, strings.Join(quoted, " ")); err != nil {
			return err
		}
	}
	return nil
}
