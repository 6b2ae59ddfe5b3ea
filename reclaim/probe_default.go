//go:build !wasm

package reclaim

const timelyCleanups = true
