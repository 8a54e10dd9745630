package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule  = "pkt.systems/tabgrouper"
	unknownVersion = "v0.0.0-unknown"
)

// buildVersion is set via -ldflags "-X pkt.systems/tabgrouper/internal/version.buildVersion=...".
var buildVersion = ""

// browserModules are the CDP client modules reported next to the binary version.
var browserModules = []string{
	"github.com/chromedp/chromedp",
	"github.com/chromedp/cdproto",
}

// Dep is a module the binary was linked against.
type Dep struct {
	Path    string
	Version string
}

// Build describes the running binary and the browser protocol modules it drives Chrome with.
type Build struct {
	Module  string
	Version string
	Browser []Dep
}

// Read collects build information for the running binary.
func Read() Build {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info, buildVersion)
}

// Write prints the module and version on the first line followed by one line per browser module.
func (b Build) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s %s\n", b.Module, b.Version); err != nil {
		return err
	}
	for _, dep := range b.Browser {
		if _, err := fmt.Fprintf(w, "  %s %s\n", dep.Path, dep.Version); err != nil {
			return err
		}
	}
	return nil
}

func fromBuildInfo(info *debug.BuildInfo, override string) Build {
	build := Build{Module: defaultModule, Version: unknownVersion}
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			build.Module = path
		}
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			build.Version = v
		} else if v := pseudoVersion(info); v != "" {
			build.Version = v
		}
	}
	if v := strings.TrimSpace(override); v != "" {
		build.Version = v
	}
	build.Browser = browserDeps(info)
	return build
}

func browserDeps(info *debug.BuildInfo) []Dep {
	deps := make([]Dep, 0, len(browserModules))
	for _, path := range browserModules {
		deps = append(deps, Dep{Path: path, Version: depVersion(info, path)})
	}
	return deps
}

func depVersion(info *debug.BuildInfo, path string) string {
	if info == nil {
		return "unknown"
	}
	for _, mod := range info.Deps {
		if mod == nil || mod.Path != path {
			continue
		}
		if mod.Replace != nil {
			if mod.Replace.Version != "" {
				return mod.Replace.Version + " (replaced)"
			}
			return "(replaced by " + mod.Replace.Path + ")"
		}
		if mod.Version != "" {
			return mod.Version
		}
	}
	return "unknown"
}

// pseudoVersion derives a v0.0.0 pseudo version from VCS stamps, marking modified trees.
func pseudoVersion(info *debug.BuildInfo) string {
	var revision, stamp string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			stamp = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" || stamp == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	ver := "v0.0.0-" + parsed.UTC().Format("20060102150405") + "-" + revision
	if modified {
		ver += "+dirty"
	}
	return ver
}
