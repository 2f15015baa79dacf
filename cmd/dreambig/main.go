// Package main provides the dreambig command: the poster API server plus
// offline tools for composing prompts, generating posters and browsing the
// catalog.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dreambig",
	Short: "Dream Big SG superhero poster service",
	Long:  "Dream Big SG turns a photo and a dream job into a superhero poster set at a Singapore landmark, using Gemini for photo analysis and Vertex AI Imagen for generation.",
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON config file merged over the environment")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
