package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// Log output is one JSON object per line on stdout; request logs, audit
// events and error reports all share the same stream so shipping stays a
// single pipe.
var sharedLogger = sync.OnceValue(func() *log.Logger {
	return log.New(os.Stdout, "", 0)
})

// Logger returns the process-wide structured logger.
func Logger() *log.Logger {
	return sharedLogger()
}

// LogRequest marshals the entry to a single JSON line. Entries that cannot
// be marshaled are reported in place rather than dropped silently.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Printf(`{"level":"error","msg":"unloggable entry","error":%q}`, err.Error())
		return
	}
	Logger().Println(string(data))
}
