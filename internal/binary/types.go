package binary

import (
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/release"
)

// VerificationMethod indicates how an archive was verified
type VerificationMethod int

const (
	// VerificationNone indicates the archive was not verified
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates GPG signature verification was used
	VerificationGPG
	// VerificationSHA256 indicates SHA256 checksum verification was used
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// ArchiveFormat is the extraction routine selected for an archive.
type ArchiveFormat int

const (
	// FormatTarGz extracts gzip-compressed tarballs
	FormatTarGz ArchiveFormat = iota
	// FormatZip extracts zip files
	FormatZip
)

// String returns the string representation of the archive format
func (f ArchiveFormat) String() string {
	if f == FormatZip {
		return "zip"
	}
	return "tar.gz"
}

// ExtractionPlan describes how an archive is unpacked.
type ExtractionPlan struct {
	Format ArchiveFormat
	// Overwrite unlinks existing files before writing them. Only meaningful
	// for tarballs; zip extraction always replaces existing files.
	Overwrite bool
}

// InstalledTool is a fully extracted dep-tree executable.
type InstalledTool struct {
	Path        string
	Coordinates release.Coordinates
	Verified    []VerificationMethod
	InstallTime time.Duration
}

// DownloadError reports a failed archive fetch: a network failure or a
// non-2xx response.
type DownloadError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a corrupt archive or a failure writing its entries.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// VerificationError reports a checksum or signature that did not match.
type VerificationError struct {
	Method VerificationMethod
	Err    error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s verification failed: %v", e.Method, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}
