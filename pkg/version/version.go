// Package version reports build metadata set with -ldflags at link time.
package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Info is the build metadata of an executable
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Compiler  string `json:"compiler"`
	Source    string `json:"source,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Hash      string `json:"hash,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	GitSource   string
	GitTag      string
	GitBranch   string
	GitHash     string
	GoBuildTime string
)

const (
	defaultName = "datahub"
	devVersion  = "dev"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Version returns the git tag, then the branch, then the short VCS revision
// and finally "dev"
func Version() string {
	if GitTag != "" {
		return GitTag
	}
	if GitBranch != "" {
		return GitBranch
	}
	if rev := setting("vcs.revision"); rev != "" {
		if len(rev) > 12 {
			return rev[:12]
		}
		return rev
	}
	return devVersion
}

// UserAgent returns the value of the User-Agent header sent to remote
// services, for example "datahub/v1.0.0"
func UserAgent() string {
	return defaultName + "/" + Version()
}

// Get returns the build metadata for the named executable. Values set at
// link time take precedence over the embedded build info.
func Get(name string) Info {
	if name == "" {
		name = defaultName
	}
	info := Info{
		Name:      name,
		Version:   Version(),
		Compiler:  runtime.Version(),
		Source:    GitSource,
		Tag:       GitTag,
		Branch:    GitBranch,
		Hash:      GitHash,
		BuildTime: GoBuildTime,
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Source == "" {
		info.Source = build.Main.Path
	}
	var goos, goarch string
	for _, s := range build.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Hash == "" {
				info.Hash = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "GOOS":
			goos = s.Value
		case "GOARCH":
			goarch = s.Value
		}
	}
	if goos != "" && goarch != "" {
		info.Platform = goos + "/" + goarch
	}
	return info
}

// JSON returns the indented build metadata for the named executable
func JSON(name string) []byte {
	data, err := json.MarshalIndent(Get(name), "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func setting(key string) string {
	if build, ok := debug.ReadBuildInfo(); ok {
		for _, s := range build.Settings {
			if s.Key == key {
				return s.Value
			}
		}
	}
	return ""
}
