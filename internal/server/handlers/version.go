package handlers

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"

	"github.com/bfhl/bfhl/internal/server/envelope"
)

// Build metadata, injected from main via SetVersionInfo.
var (
	AppName      = "bfhl"
	AppVersion   = "dev"
	AppCommit    = "unknown"
	AppBuildDate = "unknown"
)

var processStart = time.Now()

// SetVersionInfo records the ldflags build metadata.
func SetVersionInfo(version, commit, buildDate string) {
	AppVersion = version
	AppCommit = commit
	AppBuildDate = buildDate
}

// VersionInfo is the data payload of GET /version and the output of
// "bfhl version --extended".
type VersionInfo struct {
	App          AppInfo     `json:"app"`
	Dependencies DepInfo     `json:"dependencies"`
	Runtime      RuntimeInfo `json:"runtime"`
}

type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	Module    string `json:"module,omitempty"`
	GoVersion string `json:"go_version"`
}

type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

type RuntimeInfo struct {
	Platform      string  `json:"platform"`
	NumCPU        int     `json:"num_cpu"`
	NumGoroutines int     `json:"num_goroutines"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// CurrentVersion snapshots build and runtime details.
func CurrentVersion() VersionInfo {
	app := AppInfo{
		Name:      AppName,
		Version:   AppVersion,
		Commit:    AppCommit,
		BuildDate: AppBuildDate,
		GoVersion: runtime.Version(),
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		app.Module = build.Main.Path
	}

	deps := crucible.GetVersion()
	return VersionInfo{
		App:          app,
		Dependencies: DepInfo{Gofulmen: deps.Gofulmen, Crucible: deps.Crucible},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
			UptimeSeconds: time.Since(processStart).Round(time.Millisecond).Seconds(),
		},
	}
}

// VersionHandler serves GET /version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	envelope.Write(w, http.StatusOK, envelope.Success(r.Context(), CurrentVersion()))
}
