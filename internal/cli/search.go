package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raglite/raglite/internal/retriever"
	"github.com/raglite/raglite/pkg/types"
)

func newSearchCmd() *cobra.Command {
	var (
		docType    string
		language   string
		maxResults int
		minScore   float64
		maxTokens  int
		asContext  bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index with a natural-language query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()

			query := strings.Join(args, " ")
			filter := &types.SearchFilter{
				MaxResults: maxResults,
				MinScore:   minScore,
				MaxTokens:  maxTokens,
			}
			if language != "" {
				filter.Languages = []string{language}
			}

			var results []*types.SearchResult
			switch docType {
			case "":
				results, err = m.Search(cmd.Context(), query, filter)
			case "code":
				results, err = m.SearchCode(cmd.Context(), query, filter)
			case "docs", "documentation":
				results, err = m.SearchDocs(cmd.Context(), query, filter)
			default:
				results, err = m.SearchByType(cmd.Context(), query,
					[]types.DocumentType{types.DocumentType(docType)}, filter)
			}
			if err != nil {
				return err
			}

			if asContext {
				fmt.Fprint(cmd.OutOrStdout(), retriever.FormatResultsForContext(query, results))
				return nil
			}
			printResults(cmd.OutOrStdout(), query, results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", "", "restrict to a document type (code, docs, config, other)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "restrict to a language (e.g. go)")
	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "maximum results (default from config)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum score in [0,1] (default from config)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "total token budget across results (0 = unlimited)")
	cmd.Flags().BoolVar(&asContext, "context", false, "print results as a prompt context block")
	return cmd
}
