package binary

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/download"
)

// Verifier checks downloaded release assets against the checksum file
// published with the release and, given a keyring, the signature over it.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier. A nil keyring disables signature checks.
func NewVerifier(keyring openpgp.EntityList) *Verifier {
	return &Verifier{keyring: keyring}
}

// Verify checks filePath, downloaded from resolved, using whatever the
// release publishes. Auxiliary files are fetched into workDir and removed.
func (v *Verifier) Verify(ctx context.Context, d *download.Downloader, resolved *ResolvedDownload, filePath, workDir string) (VerificationMethod, error) {
	if resolved.ChecksumURL == "" {
		return VerificationNone, nil
	}

	sumsPath := filepath.Join(workDir, fmt.Sprintf(".%s.%s", resolved.AssetName, checksumAssetName))
	defer os.Remove(sumsPath)

	if err := d.DownloadToFile(ctx, resolved.ChecksumURL, sumsPath); err != nil {
		return VerificationNone, fmt.Errorf("download checksums: %w", err)
	}

	method := VerificationSHA256
	if v.keyring != nil {
		if resolved.SignatureURL == "" {
			return VerificationNone, fmt.Errorf("keyring configured but release has no %s", signatureAssetName)
		}

		sigPath := sumsPath + ".sig"
		defer os.Remove(sigPath)

		if err := d.DownloadToFile(ctx, resolved.SignatureURL, sigPath); err != nil {
			return VerificationNone, fmt.Errorf("download signature: %w", err)
		}
		if err := v.VerifySignature(sumsPath, sigPath); err != nil {
			return VerificationNone, err
		}
		method = VerificationGPG
	}

	if err := VerifyChecksum(filePath, resolved.AssetName, sumsPath); err != nil {
		return VerificationNone, err
	}

	return method, nil
}

// VerifySignature checks a detached signature (armored or binary) over signedPath.
func (v *Verifier) VerifySignature(signedPath, signaturePath string) error {
	if len(v.keyring) == 0 {
		return errors.New("verify signature: no keyring")
	}

	signed, err := os.Open(signedPath)
	if err != nil {
		return fmt.Errorf("open signed file: %w", err)
	}
	defer signed.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, signed, sig, nil)
	if err != nil {
		if _, err := signed.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind signed file: %w", err)
		}
		if _, err := sig.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind signature: %w", err)
		}
		_, err = openpgp.CheckDetachedSignature(v.keyring, signed, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	return nil
}

// VerifyChecksum compares the SHA-256 of filePath with the entry for
// assetName in the sums file.
func VerifyChecksum(filePath, assetName, sumsPath string) error {
	actual, err := calculateSHA256(filePath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	expected, err := findChecksum(sumsPath, assetName)
	if err != nil {
		return fmt.Errorf("find checksum: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w for %s: actual %s, expected %s", ErrChecksumMismatch, assetName, actual, expected)
	}

	return nil
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
// Format: "abc123def456  filename" (a leading '*' marks binary mode)
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

		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
