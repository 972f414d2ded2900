// Package fingerprint computes deterministic SHA-256 content digests for
// pipeline artifacts and verifies them against a canon manifest. Hashing
// follows the same sha256-hex convention as the rest of the pipeline's
// tamper-evidence tooling: no chaining, no salts, a flat path to digest.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
)

// Manifest is the canon manifest document: an algorithm tag, a free-form
// version string, and a map of repo-relative path to expected hex digest.
type Manifest struct {
	Algo    string            `json:"algo"`
	Version string            `json:"version"`
	Files   map[string]string `json:"files"`
}

// HashFile returns the lowercase hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", pipeerr.Wrap(pipeerr.CanonHashMissingFile, err, "fingerprint: file open failed").With("path", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", pipeerr.Wrap(pipeerr.RuntimeIO, err, "fingerprint: file read failed").With("path", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the lowercase hex SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// MismatchedFile describes one file whose observed digest did not match
// the manifest's expectation.
type MismatchedFile struct {
	Path     string
	Expected string
	Actual   string
}

// VerifyResult is the outcome of checking a manifest against a base
// directory's actual file contents.
type VerifyResult struct {
	OK         bool
	Missing    []string
	Mismatched []MismatchedFile
}

// Verify checks every file the manifest declares: algo must be "sha256",
// every path must exist under baseDir, and every computed digest must
// match. A failure of any kind is terminal; the caller decides how to
// surface it (the canon-hash gate treats Verify failure as a hard run
// abort, never a partial pass).
func Verify(m Manifest, baseDir string) (VerifyResult, error) {
	if m.Algo != "sha256" {
		return VerifyResult{}, pipeerr.New(pipeerr.CanonHashMismatch, "fingerprint: unsupported manifest algo").With("algo", m.Algo)
	}

	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var result VerifyResult
	result.OK = true

	for _, p := range paths {
		full := joinBase(baseDir, p)
		actual, err := HashFile(full)
		if err != nil {
			if pipeerr.CodeOf(err) == pipeerr.CanonHashMissingFile {
				result.Missing = append(result.Missing, p)
				result.OK = false
				continue
			}
			return VerifyResult{}, err
		}
		if actual != m.Files[p] {
			result.Mismatched = append(result.Mismatched, MismatchedFile{Path: p, Expected: m.Files[p], Actual: actual})
			result.OK = false
		}
	}

	if !result.OK {
		return result, pipeerr.New(pipeerr.CanonHashMismatch, "fingerprint: manifest verification failed").
			With("missing_count", len(result.Missing)).With("mismatched_count", len(result.Mismatched))
	}
	return result, nil
}

func joinBase(baseDir, relPath string) string {
	if baseDir == "" {
		return relPath
	}
	return baseDir + string(os.PathSeparator) + relPath
}
