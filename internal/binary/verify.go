package binary

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier handles cryptographic verification of downloaded archives
type Verifier struct {
	publicKeyPath string
}

// NewVerifier creates a verifier. publicKeyPath may be empty when only
// checksum verification is used.
func NewVerifier(publicKeyPath string) *Verifier {
	return &Verifier{publicKeyPath: publicKeyPath}
}

// VerifyChecksum compares the SHA256 of archivePath with its entry in a
// checksums file.
func (v *Verifier) VerifyChecksum(archivePath, checksumPath string) error {
	actualChecksum, err := calculateSHA256(archivePath)
	if err != nil {
		return &VerificationError{Method: VerificationSHA256, Err: fmt.Errorf("calculate checksum: %w", err)}
	}

	expectedChecksum, err := findChecksum(checksumPath, filepath.Base(archivePath))
	if err != nil {
		return &VerificationError{Method: VerificationSHA256, Err: fmt.Errorf("find checksum: %w", err)}
	}

	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return &VerificationError{
			Method: VerificationSHA256,
			Err: fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s",
				actualChecksum, expectedChecksum),
		}
	}

	return nil
}

// VerifySignature checks a detached signature, armored or binary, against the
// configured public key.
func (v *Verifier) VerifySignature(archivePath, signaturePath string) error {
	keyring, err := v.loadKeyring()
	if err != nil {
		return &VerificationError{Method: VerificationGPG, Err: fmt.Errorf("load keyring: %w", err)}
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return &VerificationError{Method: VerificationGPG, Err: fmt.Errorf("open archive: %w", err)}
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return &VerificationError{Method: VerificationGPG, Err: fmt.Errorf("open signature: %w", err)}
	}
	defer sigFile.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archiveFile, sigFile, nil)
	if err != nil {
		if _, seekErr := archiveFile.Seek(0, io.SeekStart); seekErr != nil {
			return &VerificationError{Method: VerificationGPG, Err: seekErr}
		}
		if _, seekErr := sigFile.Seek(0, io.SeekStart); seekErr != nil {
			return &VerificationError{Method: VerificationGPG, Err: seekErr}
		}
		_, err = openpgp.CheckDetachedSignature(keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return &VerificationError{Method: VerificationGPG, Err: fmt.Errorf("verify signature: %w", err)}
	}

	return nil
}

// loadKeyring reads the public key file, armored first then binary.
func (v *Verifier) loadKeyring() (openpgp.EntityList, error) {
	if v.publicKeyPath == "" {
		return nil, fmt.Errorf("no public key configured")
	}

	keyringFile, err := os.Open(v.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		if _, err := keyringFile.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind keyring: %w", err)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for a specific filename in a checksum file
// Format: "abc123def456  filename.tar.gz"
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		// sha256sum -b writes "digest *filename"
		checksumFilename := strings.TrimPrefix(parts[1], "*")
		if checksumFilename == filename || filepath.Base(checksumFilename) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
