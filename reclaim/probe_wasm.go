//go:build wasm

package reclaim

// the single-threaded wasm collector runs too rarely for cleanups to bound leaks
const timelyCleanups = false
