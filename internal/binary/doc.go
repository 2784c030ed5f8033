// Package binary resolves, downloads, extracts and installs the external
// executables mediafetch drives: yt-dlp and ffmpeg.
//
// # Resolution
//
// Two strategies share the Resolver interface:
//   - ReleaseResolver queries the latest GitHub release of yt-dlp and picks
//     the first asset whose name contains the pattern for the target.
//   - StaticResolver maps each supported target to a fixed ffmpeg build URL.
//
// Targets without an entry fail with a *TargetError wrapping
// ErrNoReleaseAsset or ErrNoStaticBuild, so callers can tell an unsupported
// host apart from network or storage failures.
//
// # Installation
//
// yt-dlp assets are the executable itself and are downloaded straight to
// their final path, then checked against the release's SHA2-256SUMS file
// (and its OpenPGP signature when a keyring is configured).
//
// ffmpeg builds are archives. The installer downloads the archive into the
// destination directory, extracts it to a sibling directory named after the
// archive, locates the binary through a per-target Layout, copies it into
// the destination directory and removes the intermediates. Cleanup failures
// are reported in InstallResult.CleanupErr without undoing the install.
//
// # Usage
//
//	inst := binary.NewInstaller(binary.Config{GitHubToken: token})
//	res, err := inst.Install(ctx, binary.ToolFFmpeg, "/opt/mediafetch/bin", "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Path)
//
// Installing the same tool into the same directory from two processes at
// once fails fast with ErrInstallInProgress.
package binary
