package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreambig/dreambig-sg/internal/catalog"
	"github.com/dreambig/dreambig-sg/internal/observability"
)

var catalogCmd = &cobra.Command{
	Use:       "catalog [locations|careers|missions]",
	Short:     "List the poster choices",
	Long:      "Lists the locations, careers and mission builder options the poster service understands. With no argument every list is printed.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"locations", "careers", "missions"},
	RunE:      runCatalog,
}

var (
	catalogSearch string
	catalogAll    bool
)

func init() {
	catalogCmd.Flags().StringVarP(&catalogSearch, "search", "s", "", "Filter careers by label or category")
	catalogCmd.Flags().BoolVar(&catalogAll, "all", false, "List every matching career")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	printer := observability.NewPrinter(cmd.OutOrStdout())

	section := ""
	if len(args) == 1 {
		section = args[0]
	}

	switch section {
	case "locations":
		printer.PrintLocations(catalog.Locations())
	case "careers":
		printer.PrintCareers(catalog.SearchCareers(catalogSearch), catalogAll || catalogSearch != "")
	case "missions":
		printer.PrintMissions(catalog.Missions())
	case "":
		printer.PrintLocations(catalog.Locations())
		printer.PrintCareers(catalog.SearchCareers(catalogSearch), catalogAll)
		printer.PrintMissions(catalog.Missions())
	default:
		return fmt.Errorf("unknown catalog section %q", section)
	}
	return nil
}
