// =============================================================================
// RAML XML to CSV Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the batch commands:
//   - Directory management
//   - Input discovery (*.xml in the input directory)
//   - Archival of converted inputs
//   - Processing summary logs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after a successful conversion
//   - Inputs that failed, or produced nothing, stay where they are
//   - Output files are never moved
//   - An archived file is never overwritten; a later input with the same
//     name is archived under a timestamped name
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InputExtension is the extension of files picked up from the input directory.
const InputExtension = ".xml"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the batch commands.
type FileManager struct {
	// InputDir is the directory scanned for XML files.
	InputDir string

	// OutputDir is the directory where exported files are written.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// ArchiveOnSuccess determines whether converted inputs are archived.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string, archiveOnSuccess bool) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		ArchiveOnSuccess: archiveOnSuccess,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the input and output directories, and the
// archive directory when archiving is enabled.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.InputDir, fm.OutputDir}
	if fm.ArchiveOnSuccess {
		dirs = append(dirs, fm.InputArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles returns the XML files directly inside the input
// directory, sorted by name. The extension match is case-insensitive.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsInputFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(fm.InputDir, entry.Name()))
	}
	sort.Strings(files)

	return files, nil
}

// IsInputFile reports whether name has the input extension.
func IsInputFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), InputExtension)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file, or filePath when archiving is disabled.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	if err := os.MkdirAll(fm.InputArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath, err := fm.getArchivePath(filePath, time.Now())
	if err != nil {
		return "", err
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath returns a path in the archive directory that is not yet
// taken. An earlier archived file with the same name is never replaced: the
// new one gets a timestamp suffix, and a counter if that is taken too.
//
// Example: input_archive/dump.xml, then input_archive/dump_20240115_093000.xml
func (fm *FileManager) getArchivePath(filePath string, now time.Time) (string, error) {
	fileName := filepath.Base(filePath)
	candidate := filepath.Join(fm.InputArchiveDir, fileName)
	if !FileExists(candidate) {
		return candidate, nil
	}

	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext) + "_" + now.Format("20060102_150405")
	for i := 0; i < 1000; i++ {
		name := stem + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		candidate = filepath.Join(fm.InputArchiveDir, name)
		if !FileExists(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free archive name for %s", fileName)
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	EmptyFiles      int
	FailedFiles     int
	TotalRows       int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully converted file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	Rows        int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a file that was not converted.
type FailedFileInfo struct {
	InputFile    string
	ErrorType    string
	ErrorMessage string
}

// NewProcessingSummary starts a summary with a fresh run ID.
func NewProcessingSummary(start time.Time) ProcessingSummary {
	return ProcessingSummary{
		RunID:     uuid.New().String(),
		StartTime: start,
	}
}

// WriteSummaryLog writes a processing summary to a text file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryFileName := fmt.Sprintf("processing_summary_%s_%s.txt",
		summary.StartTime.Format("20060102_150405"), shortID(summary.RunID))
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "RAML XML to CSV Converter - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Nothing Extracted:  %d\n"+
		"  Failed:             %d\n"+
		"  Total Rows:         %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.EmptyFiles,
		summary.FailedFiles,
		summary.TotalRows)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Output:       %s\n", pf.OutputFile)
			if pf.ArchivePath != "" && pf.ArchivePath != pf.InputFile {
				fmt.Fprintf(writer, "  Archived To:  %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(writer, "  Rows:         %d\n", pf.Rows)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Not Converted:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:   %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Reason: %s\n", ff.ErrorType)
			if ff.ErrorMessage != "" {
				fmt.Fprintf(writer, "  Error:  %s\n", ff.ErrorMessage)
			}
			writer.WriteString("\n")
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// shortID returns the first block of a UUID string.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
