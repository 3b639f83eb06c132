package story

import (
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultVoicePool is the fixed set of synthesis voices characters draw from.
var DefaultVoicePool = []string{"onyx", "nova", "echo", "shimmer", "fable", "alloy"}

// VoiceMap assigns a stable synthesis voice to each speaker tag. Keys are
// case-normalized and the map only ever grows during a session; assignments
// survive undo/redo and save/load.
type VoiceMap struct {
	mu       sync.Mutex
	pool     []string
	assigned map[string]string
}

// NewVoiceMap creates a voice map over the given pool. The narrator is
// pre-assigned the first voice in the pool so it stays consistent across
// sessions.
func NewVoiceMap(pool []string) *VoiceMap {
	if len(pool) == 0 {
		pool = DefaultVoicePool
	}
	vm := &VoiceMap{
		pool:     append([]string(nil), pool...),
		assigned: make(map[string]string),
	}
	vm.assigned[NarratorSpeaker] = vm.pool[0]
	return vm
}

// Assign returns the voice for the speaker, assigning the next unused voice
// from the pool on first sight. When the pool is exhausted a random pool
// voice is reused; new characters never block for lack of a unique voice.
func (vm *VoiceMap) Assign(speaker string) string {
	key := strings.ToUpper(strings.TrimSpace(speaker))
	if key == "" {
		key = NarratorSpeaker
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if voice, ok := vm.assigned[key]; ok {
		return voice
	}

	used := make(map[string]bool, len(vm.assigned))
	for _, v := range vm.assigned {
		used[v] = true
	}

	for _, v := range vm.pool {
		if !used[v] {
			vm.assigned[key] = v
			return v
		}
	}

	voice := vm.pool[rand.Intn(len(vm.pool))]
	log.Warn("voice pool exhausted, reusing a random voice", "speaker", key, "voice", voice)
	vm.assigned[key] = voice
	return voice
}

// Snapshot returns a copy of the current assignments. Used by save/load.
func (vm *VoiceMap) Snapshot() map[string]string {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	out := make(map[string]string, len(vm.assigned))
	for k, v := range vm.assigned {
		out[k] = v
	}
	return out
}

// Restore merges saved assignments into the map. Existing assignments win so
// a loaded blob cannot re-voice characters already heard this session.
func (vm *VoiceMap) Restore(assigned map[string]string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	for k, v := range assigned {
		key := strings.ToUpper(strings.TrimSpace(k))
		if _, ok := vm.assigned[key]; !ok {
			vm.assigned[key] = v
		}
	}
}

// Speakers returns the assigned speaker tags in sorted order.
func (vm *VoiceMap) Speakers() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	out := make([]string, 0, len(vm.assigned))
	for k := range vm.assigned {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
