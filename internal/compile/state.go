package compile

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/fsutil"
)

// State records, per artifact, the combined hash of the inputs it was last
// built from. A task whose inputs hash to the recorded value (and whose
// artifact still exists) is a no-op on rebuild; anything else is stale.
// Because every artifact's input hash folds in all of its module's
// descriptor files, a descriptor edit invalidates exactly that module's
// artifacts and nothing else.
type State struct {
	mu        sync.Mutex
	artifacts map[string]uint64
}

// stateFile is the on-disk representation. Hashes are serialized as strings
// because JSON numbers cannot carry a full uint64.
type stateFile struct {
	Artifacts map[string]string `json:"artifacts"`
}

// NewState creates an empty build state.
func NewState() *State {
	return &State{artifacts: make(map[string]uint64)}
}

// LoadState reads the build state at path. A missing file yields an empty
// state; a corrupt file is discarded the same way, forcing a full rebuild
// rather than failing the build.
func LoadState(fs afero.Fs, path string) *State {
	s := NewState()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return s
	}

	var file stateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return s
	}
	for artifact, hash := range file.Artifacts {
		v, err := strconv.ParseUint(hash, 16, 64)
		if err != nil {
			continue
		}
		s.artifacts[artifact] = v
	}
	return s
}

// Save writes the state to path.
func (s *State) Save(fs afero.Fs, path string) error {
	s.mu.Lock()
	file := stateFile{Artifacts: make(map[string]string, len(s.artifacts))}
	for artifact, hash := range s.artifacts {
		file.Artifacts[artifact] = strconv.FormatUint(hash, 16)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFile(fs, path, data)
}

// Fresh reports whether the artifact exists and was last built from inputs
// hashing to h.
func (s *State) Fresh(fs afero.Fs, artifact string, h uint64) bool {
	s.mu.Lock()
	recorded, ok := s.artifacts[artifact]
	s.mu.Unlock()
	if !ok || recorded != h {
		return false
	}

	exists, err := afero.Exists(fs, artifact)
	return err == nil && exists
}

// Record remembers that artifact was built from inputs hashing to h.
func (s *State) Record(artifact string, h uint64) {
	s.mu.Lock()
	s.artifacts[artifact] = h
	s.mu.Unlock()
}

// Forget drops the record for artifact, if any.
func (s *State) Forget(artifact string) {
	s.mu.Lock()
	delete(s.artifacts, artifact)
	s.mu.Unlock()
}
