package commands

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alignstack-labs/tokalign/internal/corpus"
)

// NewLanguagesCommand creates the languages command.
func NewLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their file extensions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderer := getRenderer(cmd)

			langs := corpus.Languages()
			sort.Strings(langs)

			if renderer.JSON() {
				out := make(map[string][]string, len(langs))
				for _, lang := range langs {
					out[lang] = corpus.Extensions(lang)
				}
				return renderer.Raw(out)
			}

			for _, lang := range langs {
				cmd.Printf("%-12s %s\n", lang, strings.Join(corpus.Extensions(lang), " "))
			}
			return nil
		},
	}
}
