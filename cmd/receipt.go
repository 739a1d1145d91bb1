package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"receiptscan/internal/logger"
	"receiptscan/internal/receipt"
	"receiptscan/pkg/models"
)

var receiptCmd = &cobra.Command{
	Use:   "receipt [file]",
	Short: "Extract a structured receipt record from an image or OCR text",
	Long: `Recognize a receipt image and extract a best-effort structured record as JSON:
supplier, transaction date, VAT registration TIN, payment terms, VAT amount,
pre-tax total, total amount due and the items table.

With --text the file is read as already recognized text and no OCR call is
made, so no Google Cloud credentials are needed.

Unrecognized fields get defaults: empty supplier, today's date (or --today),
zero amounts and no items. Every value is meant to be reviewed.`,
	Example: `  # Extract from a photo
  receiptscan receipt receipt.jpg

  # Extract from text saved by "receiptscan ocr", with a fixed fallback date
  receiptscan receipt receipt.txt --text --today 2025-04-05

  # Keep the recognized text alongside the record
  receiptscan receipt receipt.png --raw -o receipt.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReceipt,
}

// ReceiptOutput represents the JSON output structure for receipt extraction
type ReceiptOutput struct {
	Receipt  models.ReceiptCandidate `json:"receipt"`
	Warnings []string                `json:"warnings,omitempty"`
	RawText  string                  `json:"raw_text,omitempty"`
	Metadata ExtractionMetadata      `json:"metadata"`
}

// ExtractionMetadata contains information about the extraction run
type ExtractionMetadata struct {
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size_bytes"`
	Source             string    `json:"source"` // "image" or "text"
	OCRProvider        string    `json:"ocr_provider,omitempty"`
	OCRConfidence      float32   `json:"ocr_confidence,omitempty"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(receiptCmd)

	receiptCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	receiptCmd.Flags().Bool("text", false, "Treat the file as recognized text instead of an image")
	receiptCmd.Flags().String("today", "", "Date (yyyy-mm-dd) used when no transaction date is found")
	receiptCmd.Flags().Bool("raw", false, "Include the recognized text in the output")
	receiptCmd.Flags().Int("timeout", 0, "OCR timeout in seconds (default: OCR_TIMEOUT_SECONDS)")
}

func runReceipt(cmd *cobra.Command, args []string) error {
	path := args[0]
	log := logger.WithFile("receipt", path)

	outputPath, _ := cmd.Flags().GetString("output")
	textInput, _ := cmd.Flags().GetBool("text")
	today, _ := cmd.Flags().GetString("today")
	includeRaw, _ := cmd.Flags().GetBool("raw")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	extractor, err := newExtractor(today)
	if err != nil {
		return err
	}

	fileInfo, err := validateImageFile(path, log)
	if err != nil {
		return err
	}

	startTime := time.Now()
	var result *receipt.ScanResult
	metadata := ExtractionMetadata{
		FileName: filepath.Base(fileInfo.Name()),
		FileSize: fileInfo.Size(),
	}

	if textInput {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read text file")
			return fmt.Errorf("failed to read text file: %w", err)
		}
		result = receipt.NewScanner(nil, receipt.WithExtractor(extractor)).ScanText(string(data))
		metadata.Source = "text"
	} else {
		result, err = scanImage(path, timeoutSecs, extractor, log)
		if err != nil {
			return err
		}
		metadata.Source = "image"
		metadata.OCRProvider = appConfig.OCRProvider
		metadata.OCRConfidence = result.OCR.Confidence
	}

	metadata.ProcessedAt = time.Now()
	metadata.ProcessingDuration = time.Since(startTime).String()

	output := ReceiptOutput{
		Receipt:  result.Candidate,
		Warnings: result.Warnings,
		Metadata: metadata,
	}
	if includeRaw {
		output.RawText = result.RawText
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(data, outputPath, log)
}

// newExtractor pins the date fallback when --today is given
func newExtractor(today string) (*receipt.Extractor, error) {
	if today == "" {
		return receipt.NewExtractor(), nil
	}
	fixed, err := time.ParseInLocation(receipt.DateLayout, today, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --today value %q, expected yyyy-mm-dd: %w", today, err)
	}
	return receipt.NewExtractor(receipt.WithClock(func() time.Time { return fixed })), nil
}

// scanImage runs OCR on the image file and extracts the candidate
func scanImage(path string, timeoutSecs int, extractor *receipt.Extractor, log zerolog.Logger) (*receipt.ScanResult, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, err
	}
	timeout := cfg.OCRTimeout
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	recognizer, err := createRecognizer(ctx, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := recognizer.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR client")
		}
	}()

	imageFile, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open image file")
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer func() {
		if closeErr := imageFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close image file")
		}
	}()

	scanner := receipt.NewScanner(recognizer, receipt.WithExtractor(extractor))
	result, err := scanner.ScanImage(ctx, imageFile)
	if err != nil {
		return nil, handleOCRError(err, log)
	}
	return result, nil
}
