package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Info is the version of blobpull split into its components.
type Info struct {
	Major      string `json:"major"`
	Minor      string `json:"minor"`
	Patch      string `json:"patch"`
	PreRelease string `json:"prerelease,omitempty"`
	Meta       string `json:"meta,omitempty"`
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit,omitempty"`
	BuildDate  string `json:"buildDate,omitempty"`
	GoVersion  string `json:"goVersion"`
	Compiler   string `json:"compiler"`
	Platform   string `json:"platform"`
}

// GetVersionInfo derives the version information from the build info.
// Versions that are not semantic versions are reported as is with a 0.0.0 version.
func GetVersionInfo(bi *debug.BuildInfo) Info {
	info := Info{
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	v, err := semver.NewVersion(bi.Main.Version)
	if err != nil {
		info.GitVersion = bi.Main.Version
		info.Major, info.Minor, info.Patch = "0", "0", "0"
		return info
	}

	info.GitVersion = v.Original()
	info.Meta = v.Metadata()
	if pre := v.Prerelease(); pre != "" {
		info.PreRelease = pre
		// pseudo versions look like v0.0.0-20240101120000-abcdef123456
		if date, commit, ok := strings.Cut(lastPseudoSegments(pre), "-"); ok {
			info.BuildDate, info.GitCommit = date, commit
		}
	}
	info.Major = strconv.FormatUint(v.Major(), 10)
	info.Minor = strconv.FormatUint(v.Minor(), 10)
	info.Patch = strconv.FormatUint(v.Patch(), 10)
	return info
}

// lastPseudoSegments strips the "0." or "rc.1.0." style prefix of pseudo versions derived
// from a pre-release, leaving "<timestamp>-<commit>".
func lastPseudoSegments(pre string) string {
	if i := strings.LastIndex(pre, "."); i >= 0 {
		return pre[i+1:]
	}
	return pre
}
