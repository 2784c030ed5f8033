package binary

import (
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

var (
	// ErrNoReleaseAsset means the latest release has no asset for the target.
	ErrNoReleaseAsset = errors.New("no release asset for target")
	// ErrNoStaticBuild means the static build table has no entry for the target.
	ErrNoStaticBuild = errors.New("no static build for target")
	// ErrUnsupportedLayout means the location of the binary inside the
	// extracted archive is unknown for the target.
	ErrUnsupportedLayout = errors.New("unsupported archive layout for target")
	// ErrBinaryNotFound means the extracted archive does not contain the binary
	// where the layout table says it should be.
	ErrBinaryNotFound = errors.New("binary not found in extracted archive")
	// ErrUnsupportedArchive means the archive format is not zip or tar.xz.
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	// ErrIllegalPath means an archive entry would be written outside the destination.
	ErrIllegalPath = errors.New("illegal file path in archive")
	// ErrUnknownTool means no resolver is registered for the tool.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrChecksumMismatch means the downloaded file does not match its published checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// TargetError reports that a tool cannot be provided for a platform and
// architecture. Err is one of ErrNoReleaseAsset, ErrNoStaticBuild or
// ErrUnsupportedLayout.
type TargetError struct {
	Tool     Tool
	Platform platform.Platform
	Arch     platform.Architecture
	Err      error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %v (%s/%s)", e.Tool, e.Err, e.Platform, e.Arch)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// IsUnsupportedTarget reports whether err means the host cannot be served,
// as opposed to a network, storage or tool failure.
func IsUnsupportedTarget(err error) bool {
	var te *TargetError
	return errors.As(err, &te)
}
