package devserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Fault makes requests to Path fail or stall. Count is the number of
// requests affected; a negative Count never expires.
type Fault struct {
	Path   string        `json:"path"`
	Status int           `json:"status"`
	Delay  time.Duration `json:"delay"`
	Count  int           `json:"count"`
}

// faults is the injected failure table keyed by request path.
type faults struct {
	mu    sync.Mutex
	table map[string]*Fault
}

func newFaults() *faults {
	return &faults{table: make(map[string]*Fault)}
}

func (f *faults) set(fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fault.Count == 0 {
		delete(f.table, fault.Path)
		return
	}
	f.table[fault.Path] = &fault
}

func (f *faults) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.table)
}

// take consumes one use of the fault for path.
func (f *faults) take(path string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fault, ok := f.table[path]
	if !ok {
		return Fault{}, false
	}
	if fault.Count > 0 {
		fault.Count--
		if fault.Count == 0 {
			delete(f.table, path)
		}
	}
	return *fault, true
}

func (f *faults) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		fault, ok := f.take(c.Request.URL.Path)
		if !ok {
			c.Next()
			return
		}
		if fault.Delay > 0 {
			select {
			case <-time.After(fault.Delay):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if fault.Status == 0 {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(fault.Status, gin.H{"message": http.StatusText(fault.Status)})
	}
}
