// Package download provides secure ffmpeg-based media downloading.
// Uses exec.CommandContext with explicit argument slices and validates
// output paths against directory traversal attacks.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"unity/internal/httputil"
	"unity/internal/media"
)

// Request describes one download.
type Request struct {
	Stream    media.StreamDescriptor
	Title     string
	OutputDir string
	Referer   string
}

// Download fetches a stream to a local file using ffmpeg. Progress goes to
// progress, usually os.Stderr.
func Download(ctx context.Context, req Request, progress io.Writer) (string, error) {
	// Validate ffmpeg is available
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	outputPath, err := OutputPath(req.OutputDir, req.Title)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, ffmpegArgs(req, outputPath)...)
	cmd.Stdout = progress
	cmd.Stderr = progress

	fmt.Fprintf(progress, "Downloading to: %s\n", outputPath)

	if err := cmd.Run(); err != nil {
		// Clean up partial download on failure
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg download failed: %w", err)
	}

	return outputPath, nil
}

// OutputPath creates outputDir if needed and returns the sanitized .mkv path
// for title inside it.
func OutputPath(outputDir, title string) (string, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	filename := httputil.SanitizeFilename(title) + ".mkv"
	outputPath, err := httputil.SafeDownloadPath(absDir, filename)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}
	return outputPath, nil
}

func ffmpegArgs(req Request, outputPath string) []string {
	args := []string{"-y"} // Overwrite output

	// Input options must precede -i
	if req.Referer != "" {
		args = append(args, "-headers", "Referer: "+req.Referer+"\r\n")
	}

	args = append(args,
		"-i", req.Stream.URL,
		"-c:v", "copy", // Copy video stream (no re-encoding)
		"-c:a", "copy", // Copy audio stream
		"-metadata", fmt.Sprintf("title=%s", req.Title),
		outputPath,
	)

	return args
}
