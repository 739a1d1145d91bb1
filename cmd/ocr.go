package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"receiptscan/internal/logger"
	"receiptscan/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Recognize the text of a receipt image",
	Long: `Recognize all text in a receipt photo or scan using Google Cloud OCR and
print it unchanged. Useful for checking what the extraction engine will see.

The backend is selected with OCR_PROVIDER (vision or documentai). HEIC photos
are converted to PNG before upload.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID - when OCR_PROVIDER=documentai`,
	Example: `  # Print recognized text
  receiptscan ocr receipt.jpg

  # Save recognized text to a file, e.g. to replay with "receipt --text"
  receiptscan ocr receipt.jpg -o receipt.txt

  # Include metadata and output as JSON
  receiptscan ocr IMG_0042.HEIC --metadata --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string    `json:"text"`
	MimeType           string    `json:"mime_type,omitempty"`
	Converted          bool      `json:"converted,omitempty"`
	Confidence         float32   `json:"confidence,omitempty"`
	LanguageCodes      []string  `json:"language_codes,omitempty"`
	ProcessedAt        time.Time `json:"processed_at,omitempty"`
	ProcessingDuration string    `json:"processing_duration,omitempty"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().BoolP("metadata", "m", false, "Include metadata in output")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 0, "Processing timeout in seconds (default: OCR_TIMEOUT_SECONDS)")
}

func runOCR(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	log := logger.WithFile("ocr", imagePath)

	outputPath, _ := cmd.Flags().GetString("output")
	includeMetadata, _ := cmd.Flags().GetBool("metadata")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	timeout := cfg.OCRTimeout
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	recognizer, err := createRecognizer(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := recognizer.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR client")
		}
	}()

	imageFile, err := os.Open(imagePath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open image file")
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer func() {
		if closeErr := imageFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close image file")
		}
	}()

	log.Info().
		Int64("size", fileInfo.Size()).
		Dur("timeout", timeout).
		Msg("Recognizing receipt text")

	result, err := recognizer.RecognizeTextWithMetadata(ctx, imageFile)
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(result.Text)).
		Msg("OCR processing completed successfully")

	data, err := formatOCRResult(result, fileInfo, jsonOutput, includeMetadata)
	if err != nil {
		log.Error().Err(err).Msg("Failed to format OCR output")
		return err
	}
	return writeOutput(data, outputPath, log)
}

// formatOCRResult renders OCR results as JSON or plain text with an optional metadata header
func formatOCRResult(result *ocr.OCRResult, fileInfo os.FileInfo, jsonOutput, includeMetadata bool) ([]byte, error) {
	if jsonOutput {
		out := OCROutput{
			Text:               result.Text,
			MimeType:           result.MimeType,
			Converted:          result.Converted,
			Confidence:         result.Confidence,
			LanguageCodes:      result.LanguageCodes,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to create JSON output: %w", err)
		}
		return data, nil
	}

	var output strings.Builder
	if includeMetadata {
		fmt.Fprintf(&output, "=== OCR Results for %s ===\n", filepath.Base(fileInfo.Name()))
		fmt.Fprintf(&output, "File size: %d bytes\n", fileInfo.Size())
		fmt.Fprintf(&output, "Uploaded as: %s\n", result.MimeType)
		if result.Confidence > 0 {
			fmt.Fprintf(&output, "Confidence: %.1f%%\n", result.Confidence*100)
		}
		if len(result.LanguageCodes) > 0 {
			fmt.Fprintf(&output, "Languages: %s\n", strings.Join(result.LanguageCodes, ", "))
		}
		fmt.Fprintf(&output, "Processing time: %v\n", result.ProcessingDuration)
		fmt.Fprintf(&output, "Processed at: %s\n", result.ProcessedAt.Format(time.RFC3339))
		output.WriteString("\n=== Recognized Text ===\n\n")
	}
	output.WriteString(result.Text)
	return []byte(output.String()), nil
}
