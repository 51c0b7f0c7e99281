package compile

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/fsutil"
	"github.com/vk/solverforge/internal/toolchain"
)

// combineHashes folds an ordered sequence of hashes into one.
func combineHashes(parts ...uint64) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, part := range parts {
		binary.LittleEndian.PutUint64(buf[:], part)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// hashDefines fingerprints an ordered define list, so a configuration change
// to a group's defines invalidates its modules' objects.
func hashDefines(defines []toolchain.Define) uint64 {
	h := xxhash.New()
	for _, d := range defines {
		h.WriteString(d.Name)
		h.WriteString("=")
		h.WriteString(d.Value)
		h.WriteString("\x00")
	}
	return h.Sum64()
}

// HashInputs combines the content hashes of the given files, in order. It
// is shared with the link planner, which fingerprints objects the same way.
func HashInputs(fs afero.Fs, paths []string) (uint64, error) {
	return hashFiles(fs, paths)
}

// hashFiles combines the content hashes of the given files, in order.
func hashFiles(fs afero.Fs, paths []string) (uint64, error) {
	parts := make([]uint64, 0, len(paths))
	for _, path := range paths {
		h, err := fsutil.HashFile(fs, path)
		if err != nil {
			return 0, err
		}
		parts = append(parts, h)
	}
	return combineHashes(parts...), nil
}
