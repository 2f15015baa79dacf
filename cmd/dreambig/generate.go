package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/dreambig/dreambig-sg/internal/config"
	"github.com/dreambig/dreambig-sg/internal/gallery"
	"github.com/dreambig/dreambig-sg/internal/imagen"
	"github.com/dreambig/dreambig-sg/internal/llm"
	"github.com/dreambig/dreambig-sg/internal/observability"
	"github.com/dreambig/dreambig-sg/internal/types"
	"github.com/dreambig/dreambig-sg/internal/vertex"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a poster from a photo",
	Long:  "Runs the full generation flow for a local photo: photo analysis, prompt composition, image generation and, when the image model fails, the placeholder poster.",
	RunE:  runGenerate,
}

var (
	generatePhoto    string
	generateCareer   string
	generateLocation string
	generateActivity string
	generateAspect   string
	generateVariant  string
	generateOutput   string
	generateSave     bool
	generateGallery  string
)

// Collaborator constructors, replaced in tests.
var (
	newPredictor = func(cfg *config.Config) imagen.Predictor {
		return vertex.NewClient(vertex.Options{
			ProjectID:       cfg.ProjectID,
			Region:          cfg.Region,
			CredentialsJSON: cfg.CredentialsJSON,
			CredentialsFile: cfg.CredentialsFile,
		})
	}
	newDescriber = func(ctx context.Context, cfg *config.Config) (imagen.SubjectDescriber, func(), error) {
		if cfg.GeminiAPIKey == "" {
			return nil, func() {}, nil
		}
		client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig().WithModel(llm.TierVision, cfg.VisionModel), cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	}
)

func init() {
	generateCmd.Flags().StringVarP(&generatePhoto, "photo", "p", "", "Path to the photo (jpeg, png or webp)")
	generateCmd.Flags().StringVarP(&generateCareer, "career", "c", "", "Career tag, e.g. doctor")
	generateCmd.Flags().StringVarP(&generateLocation, "location", "l", "", "Location tag, e.g. merlion-park")
	generateCmd.Flags().StringVarP(&generateActivity, "activity", "a", "", "What the hero is doing")
	generateCmd.Flags().StringVar(&generateAspect, "aspect", types.DefaultAspect, "Aspect ratio: 1:1, 4:3, 3:4 or 16:9")
	generateCmd.Flags().StringVar(&generateVariant, "variant", string(types.VariantDetailed), "Model variant: detailed or face-match")
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Output image path (default poster.<ext>)")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Add the poster to the local gallery")
	generateCmd.Flags().StringVar(&generateGallery, "gallery", "", "Gallery file (default under the user config directory)")

	_ = generateCmd.MarkFlagRequired("photo")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	cfg, err := loadAppConfig(configFile)
	if err != nil {
		return err
	}
	if missing := cfg.ValidateEnvironment(); len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	photoURL, err := photoDataURL(generatePhoto)
	if err != nil {
		return err
	}

	describer, closeDescriber, err := newDescriber(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create vision client: %w", err)
	}
	defer closeDescriber()

	service := imagen.NewService(cfg, nil, describer, newPredictor(cfg))
	service.OnProgress = printer.PrintProgress

	result, err := service.Generate(ctx, types.PosterRequest{
		Prompt:        fmt.Sprintf("%s superhero at %s", generateCareer, generateLocation),
		Career:        generateCareer,
		Background:    generateLocation,
		Activity:      generateActivity,
		Aspect:        generateAspect,
		SelectedModel: types.ModelVariant(generateVariant),
		SelfieDataURL: photoURL,
	})
	if err != nil {
		var validationErr *imagen.ValidationError
		if errors.As(err, &validationErr) {
			for _, d := range validationErr.Details {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", d.Field, d.Message)
			}
		}
		return err
	}

	printer.PrintResult(result)

	path, err := writeImage(result.ImageURL, generateOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved poster to %s\n", path)

	if generateSave {
		galleryPath := generateGallery
		if galleryPath == "" {
			if galleryPath, err = gallery.DefaultPath(); err != nil {
				return err
			}
		}
		poster := gallery.NewPoster(result.ImageURL, types.PosterData{
			Career:     generateCareer,
			Background: generateLocation,
			Activity:   generateActivity,
		}, time.Now())
		if err := gallery.NewStore(galleryPath).Add(poster); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added poster %s to gallery %s\n", poster.ID, galleryPath)
	}

	return nil
}

// photoDataURL reads a photo file into a data:image/...;base64 URL.
func photoDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%s is not an image (detected %s)", path, mtype.String())
	}
	return fmt.Sprintf("data:%s;base64,%s", mtype.String(), base64.StdEncoding.EncodeToString(data)), nil
}

var imageDataURL = regexp.MustCompile(`^data:image/([a-z0-9.+-]+);base64,(.+)$`)

// writeImage decodes an image data URL to path, or to poster.<ext> when path
// is empty. It returns the path written.
func writeImage(dataURL, path string) (string, error) {
	m := imageDataURL.FindStringSubmatch(dataURL)
	if m == nil {
		return "", fmt.Errorf("result is not an image data URL")
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if path == "" {
		path = "poster." + imageExtension(m[1])
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

func imageExtension(subtype string) string {
	switch subtype {
	case "svg+xml":
		return "svg"
	case "jpeg":
		return "jpg"
	default:
		return subtype
	}
}
