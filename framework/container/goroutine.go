package container

import (
	"runtime"
	"strconv"
	"strings"
)

// goid returns the current goroutine ID. Resolution stacks and request
// caches are keyed on it so that state stays local to one logical call
// chain without being threaded through every factory signature.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(idField, 10, 64)
	return id
}
