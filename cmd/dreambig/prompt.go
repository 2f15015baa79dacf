package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreambig/dreambig-sg/internal/config"
	"github.com/dreambig/dreambig-sg/internal/imagen"
	"github.com/dreambig/dreambig-sg/internal/observability"
	"github.com/dreambig/dreambig-sg/internal/prompts"
	"github.com/dreambig/dreambig-sg/internal/types"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the image prompt for a selection",
	Long:  "Composes the image-model prompt for a career, location and activity without calling any model.",
	RunE:  runPrompt,
}

var (
	promptCareer   string
	promptLocation string
	promptActivity string
	promptVariant  string
	promptAge      string
	promptRaw      bool
)

func init() {
	promptCmd.Flags().StringVarP(&promptCareer, "career", "c", "", "Career tag, e.g. doctor")
	promptCmd.Flags().StringVarP(&promptLocation, "location", "l", "", "Location tag, e.g. merlion-park")
	promptCmd.Flags().StringVarP(&promptActivity, "activity", "a", "", "What the hero is doing")
	promptCmd.Flags().StringVar(&promptVariant, "variant", string(types.VariantDetailed), "Model variant: detailed or face-match")
	promptCmd.Flags().StringVar(&promptAge, "age", string(types.AgeUnknown), "Age bracket: child, teen, adult or unknown")
	promptCmd.Flags().BoolVar(&promptRaw, "raw", false, "Print only the prompt text")

	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, _ []string) error {
	variant, ok := imagen.LookupVariant(types.ModelVariant(promptVariant))
	if !ok {
		return fmt.Errorf("unknown variant %q (want detailed or face-match)", promptVariant)
	}
	age := types.AgeBracket(promptAge)
	if !age.Valid() {
		return fmt.Errorf("unknown age bracket %q (want child, teen, adult or unknown)", promptAge)
	}

	prompt := variant.Prompt(prompts.Input{
		Career:   promptCareer,
		Location: promptLocation,
		Activity: promptActivity,
		Age:      age,
	})

	if promptRaw {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), prompt)
		return err
	}

	defaults := config.Defaults()
	observability.NewPrinter(cmd.OutOrStdout()).PrintPrompt(variant.Name(), variant.ModelID(&defaults), prompt)
	return nil
}
