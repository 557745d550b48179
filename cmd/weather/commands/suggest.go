package commands

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-lookup/internal/autocomplete"
)

func newSuggestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <text>",
		Short: "Print place suggestions for partial input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if utf8.RuneCountInString(query) < autocomplete.MinQueryLength {
				return fmt.Errorf("query must be at least %d characters", autocomplete.MinQueryLength)
			}

			items, err := opts.searcher().Search(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("search places: %w", err)
			}
			if len(items) == 0 {
				return errors.New("no places found")
			}

			out := cmd.OutOrStdout()
			for _, s := range items {
				if _, err := fmt.Fprintf(out, "%s\t%s,%s\n", s.DisplayName, s.Lat, s.Lon); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
