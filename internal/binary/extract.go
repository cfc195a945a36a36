package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/platform"
)

// PlanExtraction selects the extraction routine for an archive URL. Archives
// ending in .zip are unzipped; anything else is treated as a gzip tarball.
// Tarballs overwrite existing files unless the extracting host is macOS,
// matching the host tar used on macOS runners, which rejects --overwrite.
func PlanExtraction(archiveURL string, host *platform.Info) ExtractionPlan {
	if strings.HasSuffix(archiveURL, ".zip") {
		return ExtractionPlan{Format: FormatZip}
	}
	return ExtractionPlan{
		Format:    FormatTarGz,
		Overwrite: host == nil || !host.IsDarwin(),
	}
}

// Extractor handles archive extraction
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks archivePath into destDir according to plan. Any failure is
// returned as an *ExtractionError.
func (e *Extractor) Extract(plan ExtractionPlan, archivePath, destDir string) error {
	var err error
	switch plan.Format {
	case FormatZip:
		err = e.ExtractZip(archivePath, destDir)
	default:
		err = e.ExtractTarGz(archivePath, destDir, plan.Overwrite)
	}
	if err != nil {
		var extractErr *ExtractionError
		if errors.As(err, &extractErr) {
			return err
		}
		return &ExtractionError{Archive: archivePath, Err: err}
	}
	return nil
}

// ExtractTarGz extracts a .tar.gz archive to a destination directory. With
// overwrite set, existing non-directory entries are removed before being
// replaced; otherwise existing regular files are truncated and rewritten in
// place. An existing symlink is never written through: it is replaced in
// both modes.
func (e *Extractor) ExtractTarGz(archivePath, destDir string, overwrite bool) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			remove := removeSymlink
			if overwrite {
				remove = removeExisting
			}
			if err := remove(target); err != nil {
				return err
			}
			if err := writeFile(target, tarReader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := checkLink(destDir, target, header.Linkname); err != nil {
				return err
			}
			if err := removeExisting(target); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}

	return nil
}

// ExtractZip extracts a .zip archive to a destination directory, replacing
// existing files.
func (e *Extractor) ExtractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for _, f := range reader.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}

		if err := removeExisting(target); err != nil {
			return err
		}

		perm := f.Mode().Perm()
		if perm == 0 {
			perm = 0644
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		err = writeFile(target, rc, perm)
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// safeJoin joins an archive entry name onto destDir, rejecting names that
// would land outside of it.
func safeJoin(destDir, name string) (string, error) {
	root := filepath.Clean(destDir)
	target := filepath.Join(root, name)
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return target, nil
}

// checkLink rejects symlinks that point outside destDir.
func checkLink(destDir, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("illegal symlink target: %s -> %s", target, linkname)
	}
	root := filepath.Clean(destDir)
	resolved := filepath.Join(filepath.Dir(target), linkname)
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return fmt.Errorf("illegal symlink target: %s -> %s", target, linkname)
	}
	return nil
}

// removeExisting unlinks a non-directory entry at path if there is one.
func removeExisting(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove existing %s: %w", path, err)
	}
	return nil
}

// removeSymlink unlinks path only if it is a symlink.
func removeSymlink(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove symlink %s: %w", path, err)
	}
	return nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}
