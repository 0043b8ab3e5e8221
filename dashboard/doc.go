// Package dashboard serves a small HTTP view of the engine's own
// counters — decode-cache hit rate, cycles and instructions retired —
// rendered with github.com/go-echarts/go-echarts/v2, alongside
// github.com/go-echarts/statsview's generic Go-runtime charts
// (goroutines, heap, GC pauses). Both are wrapped behind
// github.com/rs/cors so a browser-based client on a different origin
// (e.g. a local dev dashboard) can poll it.
package dashboard
