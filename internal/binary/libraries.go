package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/mediafetch/internal/platform"
)

// Libraries holds the executable paths of the two tools.
type Libraries struct {
	YtDlp  string
	FFmpeg string
}

// DefaultLibraries returns the default executable paths inside dir.
func DefaultLibraries(dir string, p platform.Platform) Libraries {
	return Libraries{
		YtDlp:  filepath.Join(dir, ExecutableName(ToolYtDlp.String(), p)),
		FFmpeg: filepath.Join(dir, ExecutableName(ToolFFmpeg.String(), p)),
	}
}

// Path returns the configured path of tool.
func (l Libraries) Path(tool Tool) string {
	switch tool {
	case ToolYtDlp:
		return l.YtDlp
	case ToolFFmpeg:
		return l.FFmpeg
	default:
		return ""
	}
}

// Ensure installs whichever tools are missing, concurrently, at the paths
// recorded in l. A file name differing from the tool's default executable
// name is used as a custom name. The returned Libraries holds the final
// paths.
func (l Libraries) Ensure(ctx context.Context, inst *Installer) (Libraries, error) {
	p := inst.Target().Platform
	out := l

	g, ctx := errgroup.WithContext(ctx)
	for _, tool := range []Tool{ToolYtDlp, ToolFFmpeg} {
		path := l.Path(tool)
		if path == "" {
			return Libraries{}, fmt.Errorf("no path configured for %s", tool)
		}

		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return Libraries{}, fmt.Errorf("stat %s: %w", path, err)
		}

		dir, custom := splitToolName(tool, path, p)
		g.Go(func() error {
			res, err := inst.Install(ctx, tool, dir, custom)
			if err != nil {
				return err
			}
			switch tool {
			case ToolYtDlp:
				out.YtDlp = res.Path
			case ToolFFmpeg:
				out.FFmpeg = res.Path
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Libraries{}, err
	}

	return out, nil
}
