package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/pubstatic/scaffold"
)

func newNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new pubstatic project",
		Args:  cobra.ExactArgs(1),
		// Scaffolding needs no config or logger.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			name := filepath.Base(dir)
			data := scaffold.Data{
				ProjectName: name,
				SiteName:    toTitle(name),
				Date:        time.Now().Format("2006-01-02"),
			}

			cmd.Printf("Creating new pubstatic project: %s\n\n", dir)
			created, err := scaffold.Generate(dir, data)
			for _, p := range created {
				cmd.Printf("  created %s\n", p)
			}
			if err != nil {
				return err
			}

			cmd.Println()
			cmd.Println("Done! Next steps:")
			cmd.Println()
			cmd.Printf("  cd %s\n", dir)
			cmd.Println("  pubstatic serve --watch")
			cmd.Println()
			cmd.Println("Write posts in posts/*.md, then run 'pubstatic build'.")
			return nil
		},
	}
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(s)
}
