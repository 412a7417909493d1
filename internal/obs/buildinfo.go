package obs

import (
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hrportal_build_info",
			Help: "Build information of the running hrportal-api binary.",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// InitBuildInfo registers the build info metric once and pins the labels of
// the running binary to 1, the usual join target for dashboards.
func InitBuildInfo(version, commit string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
