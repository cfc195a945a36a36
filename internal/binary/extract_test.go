package binary

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/platform"
)

// testEntry describes a file placed in a test archive
type testEntry struct {
	Name    string
	Content string
	Mode    int64
}

// buildTarGz returns the bytes of a tar.gz archive holding entries
func buildTarGz(t *testing.T, entries []testEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, e := range entries {
		mode := e.Mode
		if mode == 0 {
			mode = 0644
		}
		header := &tar.Header{
			Name:     e.Name,
			Mode:     mode,
			Size:     int64(len(e.Content)),
			Typeflag: tar.TypeReg,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.Name, err)
		}
		if _, err := tarWriter.Write([]byte(e.Content)); err != nil {
			t.Fatalf("failed to write content for %s: %v", e.Name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gzipWriter.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// buildZip returns the bytes of a zip archive holding entries
func buildZip(t *testing.T, entries []testEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for _, e := range entries {
		header := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		mode := os.FileMode(e.Mode)
		if mode == 0 {
			mode = 0644
		}
		header.SetMode(mode)
		w, err := zipWriter.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", e.Name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	return path
}

func TestPlanExtraction(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		hostOS        string
		wantFormat    ArchiveFormat
		wantOverwrite bool
	}{
		{"zip_on_windows", "https://x/dep-tree-1.0.0-windows-amd64.zip", "windows", FormatZip, false},
		{"nil_host_overwrites", "https://x/a.tar.gz", "", FormatTarGz, true},
		{"zip_suffix_wins_on_linux", "https://x/a.zip", "linux", FormatZip, false},
		{"tar_on_linux", "https://x/dep-tree-1.0.0-linux-amd64.tar.gz", "linux", FormatTarGz, true},
		{"tar_on_darwin", "https://x/dep-tree-1.0.0-darwin-arm64.tar.gz", "darwin", FormatTarGz, false},
		{"unknown_suffix_is_tar", "https://x/archive.tgz", "freebsd", FormatTarGz, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var host *platform.Info
			if tt.hostOS != "" {
				host = &platform.Info{OS: tt.hostOS}
			}
			plan := PlanExtraction(tt.url, host)
			if plan.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", plan.Format, tt.wantFormat)
			}
			if plan.Overwrite != tt.wantOverwrite {
				t.Errorf("Overwrite = %v, want %v", plan.Overwrite, tt.wantOverwrite)
			}
		})
	}
}

func TestExtractTarGz(t *testing.T) {
	tests := []struct {
		name    string
		entries []testEntry
	}{
		{
			name: "simple_extraction",
			entries: []testEntry{
				{Name: "file1.txt", Content: "content1"},
				{Name: "file2.txt", Content: "content2"},
			},
		},
		{
			name: "nested_release_layout",
			entries: []testEntry{
				{Name: "dep-tree-1.2.3-linux-amd64/dep-tree", Content: "#!/bin/sh\necho ok", Mode: 0755},
				{Name: "dep-tree-1.2.3-linux-amd64/README.md", Content: "readme"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archivePath := writeArchive(t, "test.tar.gz", buildTarGz(t, tt.entries))
			destDir := t.TempDir()

			if err := NewExtractor().ExtractTarGz(archivePath, destDir, true); err != nil {
				t.Fatalf("extraction failed: %v", err)
			}

			for _, e := range tt.entries {
				content, err := os.ReadFile(filepath.Join(destDir, e.Name))
				if err != nil {
					t.Errorf("file %s was not extracted: %v", e.Name, err)
					continue
				}
				if string(content) != e.Content {
					t.Errorf("content mismatch for %s: got %q, want %q", e.Name, content, e.Content)
				}
				if e.Mode != 0 {
					info, _ := os.Stat(filepath.Join(destDir, e.Name))
					if info.Mode().Perm() != os.FileMode(e.Mode) {
						t.Errorf("mode mismatch for %s: got %o, want %o", e.Name, info.Mode().Perm(), e.Mode)
					}
				}
			}
		})
	}
}

func TestExtractTarGz_Overwrite(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be unlinked on windows")
	}

	tests := []struct {
		name      string
		overwrite bool
		// wantSameFile reports whether the existing file is rewritten in place
		wantSameFile bool
	}{
		{name: "overwrite_replaces_entry", overwrite: true, wantSameFile: false},
		{name: "in_place_rewrite", overwrite: false, wantSameFile: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			destDir := t.TempDir()
			target := filepath.Join(destDir, "dep-tree")
			if err := os.WriteFile(target, []byte("old"), 0644); err != nil {
				t.Fatalf("failed to write existing file: %v", err)
			}
			// Holding the old file open keeps its inode from being reused
			old, err := os.Open(target)
			if err != nil {
				t.Fatalf("failed to open existing file: %v", err)
			}
			defer old.Close()

			archivePath := writeArchive(t, "a.tar.gz", buildTarGz(t, []testEntry{{Name: "dep-tree", Content: "new"}}))
			if err := NewExtractor().ExtractTarGz(archivePath, destDir, tt.overwrite); err != nil {
				t.Fatalf("extraction failed: %v", err)
			}

			oldInfo, err := old.Stat()
			if err != nil {
				t.Fatalf("stat old file: %v", err)
			}
			newInfo, err := os.Stat(target)
			if err != nil {
				t.Fatalf("stat target: %v", err)
			}
			if same := os.SameFile(oldInfo, newInfo); same != tt.wantSameFile {
				t.Errorf("same file = %v, want %v", same, tt.wantSameFile)
			}

			content, _ := os.ReadFile(target)
			if string(content) != "new" {
				t.Errorf("target content = %q, want %q", content, "new")
			}
		})
	}
}

func TestExtractTarGz_ReplacesExistingSymlink(t *testing.T) {
	for _, overwrite := range []bool{true, false} {
		name := "no_overwrite"
		if overwrite {
			name = "overwrite"
		}
		t.Run(name, func(t *testing.T) {
			destDir := t.TempDir()
			decoy := filepath.Join(destDir, "decoy")
			if err := os.WriteFile(decoy, []byte("decoy"), 0644); err != nil {
				t.Fatalf("failed to write decoy: %v", err)
			}
			target := filepath.Join(destDir, "dep-tree")
			if err := os.Symlink("decoy", target); err != nil {
				t.Fatalf("failed to create symlink: %v", err)
			}

			archivePath := writeArchive(t, "a.tar.gz", buildTarGz(t, []testEntry{{Name: "dep-tree", Content: "new"}}))
			if err := NewExtractor().ExtractTarGz(archivePath, destDir, overwrite); err != nil {
				t.Fatalf("extraction failed: %v", err)
			}

			info, err := os.Lstat(target)
			if err != nil {
				t.Fatalf("lstat failed: %v", err)
			}
			if info.Mode()&os.ModeSymlink != 0 {
				t.Error("target is still a symlink")
			}
			content, _ := os.ReadFile(target)
			if string(content) != "new" {
				t.Errorf("target content = %q, want %q", content, "new")
			}
			decoyContent, _ := os.ReadFile(decoy)
			if string(decoyContent) != "decoy" {
				t.Errorf("decoy was written through: %q", decoyContent)
			}
		})
	}
}

func TestExtractTarGz_SymlinkEntryRerun(t *testing.T) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)
	_ = tarWriter.WriteHeader(&tar.Header{Name: "dep-tree-real", Mode: 0755, Size: 3})
	_, _ = tarWriter.Write([]byte("bin"))
	_ = tarWriter.WriteHeader(&tar.Header{Name: "dep-tree", Typeflag: tar.TypeSymlink, Linkname: "dep-tree-real"})
	_ = tarWriter.Close()
	_ = gzipWriter.Close()

	archivePath := writeArchive(t, "links.tar.gz", buf.Bytes())
	destDir := t.TempDir()

	for run := 1; run <= 2; run++ {
		if err := NewExtractor().ExtractTarGz(archivePath, destDir, false); err != nil {
			t.Fatalf("run %d: extraction failed: %v", run, err)
		}
	}

	link, err := os.Readlink(filepath.Join(destDir, "dep-tree"))
	if err != nil {
		t.Fatalf("readlink failed: %v", err)
	}
	if link != "dep-tree-real" {
		t.Errorf("link target = %q, want dep-tree-real", link)
	}
}

func TestExtractTarGz_PathTraversal(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		shouldFail bool
	}{
		{name: "obvious traversal", fileName: "../../../etc/passwd", shouldFail: true},
		// filepath.Join keeps this under destDir
		{name: "absolute path", fileName: "/etc/passwd", shouldFail: false},
		{name: "nested traversal", fileName: "link/../../../etc/passwd", shouldFail: true},
		{name: "valid subdirectory", fileName: "subdir/file.txt", shouldFail: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archivePath := writeArchive(t, "test.tar.gz", buildTarGz(t, []testEntry{{Name: tt.fileName, Content: "x"}}))
			destDir := filepath.Join(t.TempDir(), "extract")

			err := NewExtractor().ExtractTarGz(archivePath, destDir, true)
			if tt.shouldFail && err == nil {
				t.Error("expected error, but extraction succeeded")
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestExtractTarGz_SymlinkTraversal(t *testing.T) {
	tests := []struct {
		name       string
		linkName   string
		linkTarget string
		shouldFail bool
	}{
		{name: "absolute symlink", linkName: "link", linkTarget: "/etc/passwd", shouldFail: true},
		{name: "relative traversal symlink", linkName: "link", linkTarget: "../../../etc/passwd", shouldFail: true},
		{name: "valid relative symlink", linkName: "link", linkTarget: "target.txt", shouldFail: false},
		{name: "valid subdir symlink", linkName: "subdir/link", linkTarget: "../target.txt", shouldFail: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			gzipWriter := gzip.NewWriter(&buf)
			tarWriter := tar.NewWriter(gzipWriter)

			_ = tarWriter.WriteHeader(&tar.Header{Name: "target.txt", Mode: 0644, Size: 4})
			_, _ = tarWriter.Write([]byte("test"))
			if err := tarWriter.WriteHeader(&tar.Header{
				Name:     tt.linkName,
				Typeflag: tar.TypeSymlink,
				Linkname: tt.linkTarget,
			}); err != nil {
				t.Fatalf("failed to write symlink header: %v", err)
			}
			_ = tarWriter.Close()
			_ = gzipWriter.Close()

			archivePath := writeArchive(t, "test.tar.gz", buf.Bytes())
			destDir := filepath.Join(t.TempDir(), "extract")

			err := NewExtractor().ExtractTarGz(archivePath, destDir, true)
			if tt.shouldFail && err == nil {
				t.Error("expected error, but extraction succeeded")
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestExtractZip(t *testing.T) {
	entries := []testEntry{
		{Name: "dep-tree-1.2.3-windows-amd64/dep-tree.exe", Content: "MZ", Mode: 0755},
		{Name: "dep-tree-1.2.3-windows-amd64/LICENSE", Content: "MIT"},
	}
	archivePath := writeArchive(t, "test.zip", buildZip(t, entries))
	destDir := t.TempDir()

	// Pre-existing file must be replaced
	existing := filepath.Join(destDir, entries[1].Name)
	if err := os.MkdirAll(filepath.Dir(existing), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(existing, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewExtractor().ExtractZip(archivePath, destDir); err != nil {
		t.Fatalf("extraction failed: %v", err)
	}

	var names []string
	for _, e := range entries {
		content, err := os.ReadFile(filepath.Join(destDir, e.Name))
		if err != nil {
			t.Errorf("file %s was not extracted: %v", e.Name, err)
			continue
		}
		if string(content) != e.Content {
			t.Errorf("content mismatch for %s: got %q", e.Name, content)
		}
		names = append(names, e.Name)
	}
	sort.Strings(names)
	if len(names) != 2 {
		t.Errorf("expected 2 files, got %v", names)
	}
}

func TestExtractZip_PathTraversal(t *testing.T) {
	archivePath := writeArchive(t, "evil.zip", buildZip(t, []testEntry{{Name: "../evil.txt", Content: "x"}}))
	destDir := filepath.Join(t.TempDir(), "extract")

	if err := NewExtractor().ExtractZip(archivePath, destDir); err == nil {
		t.Error("expected error, but extraction succeeded")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(destDir), "evil.txt")); err == nil {
		t.Error("file escaped the destination directory")
	}
}

func TestExtract_WrapsErrors(t *testing.T) {
	corrupt := writeArchive(t, "corrupt.tar.gz", []byte("this is not a gzip stream"))

	tests := []struct {
		name string
		plan ExtractionPlan
	}{
		{"tar", ExtractionPlan{Format: FormatTarGz, Overwrite: true}},
		{"zip", ExtractionPlan{Format: FormatZip}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewExtractor().Extract(tt.plan, corrupt, t.TempDir())
			var extractErr *ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
			}
			if extractErr.Archive != corrupt {
				t.Errorf("Archive = %q, want %q", extractErr.Archive, corrupt)
			}
		})
	}
}
