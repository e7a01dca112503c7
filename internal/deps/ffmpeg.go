package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const filterProbeTimeout = 10 * time.Second

// CheckFFmpeg resolves the configured ffmpeg binary and confirms that it was
// built with the libass "subtitles" filter required for burn-in.
func CheckFFmpeg(ctx context.Context, binary string) Status {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	result := Check(Requirement{
		Name:        "FFmpeg",
		Command:     binary,
		Description: "Required for caption burn-in",
	})
	if !result.Available {
		return result
	}

	ok, err := HasFilter(ctx, result.Command, "subtitles")
	result.Available = false
	switch {
	case err != nil:
		result.Detail = fmt.Sprintf("filter probe failed: %v", err)
	case !ok:
		result.Detail = "ffmpeg lacks the subtitles filter (build with --enable-libass)"
	default:
		result.Available = true
	}
	return result
}

// HasFilter runs "<binary> -hide_banner -filters" and reports whether name is
// listed.
func HasFilter(ctx context.Context, binary, name string) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, filterProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, binary, "-hide_banner", "-filters").Output()
	if err != nil {
		return false, err
	}
	return filterListed(out, name), nil
}

// filterListed scans ffmpeg's filter table. Each entry line is
// "<flags> <name> <io> <description>".
func filterListed(output []byte, name string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
