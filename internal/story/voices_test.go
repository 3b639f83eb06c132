package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceMapAssignsDistinctVoicesOnce(t *testing.T) {
	vm := NewVoiceMap(nil)

	narrator := vm.Assign(NarratorSpeaker)
	barnaby1 := vm.Assign("BARNABY")
	barnaby2 := vm.Assign("BARNABY")
	molly := vm.Assign("MOLLY")

	assert.Equal(t, barnaby1, barnaby2, "a speaker must keep its first voice")
	assert.NotEqual(t, barnaby1, molly)
	assert.NotEqual(t, narrator, barnaby1)
	assert.NotEqual(t, narrator, molly)
}

func TestVoiceMapCaseNormalization(t *testing.T) {
	vm := NewVoiceMap(nil)

	a := vm.Assign("Barnaby")
	b := vm.Assign("BARNABY")
	c := vm.Assign("  barnaby ")

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestVoiceMapExhaustedPoolReuses(t *testing.T) {
	vm := NewVoiceMap([]string{"v1", "v2"})

	// Narrator holds v1, first character takes v2, pool is now exhausted.
	first := vm.Assign("ALPHA")
	assert.Equal(t, "v2", first)

	second := vm.Assign("BETA")
	assert.Contains(t, []string{"v1", "v2"}, second, "exhausted pool must reuse a pool voice")

	// The reused assignment is still sticky.
	assert.Equal(t, second, vm.Assign("BETA"))
}

func TestVoiceMapSnapshotRestore(t *testing.T) {
	vm := NewVoiceMap(nil)
	vm.Assign("BARNABY")
	saved := vm.Snapshot()

	restored := NewVoiceMap(nil)
	restored.Restore(saved)

	assert.Equal(t, saved["BARNABY"], restored.Assign("BARNABY"))
	assert.Equal(t, saved[NarratorSpeaker], restored.Assign(NarratorSpeaker))
}

func TestVoiceMapRestoreDoesNotOverrideExisting(t *testing.T) {
	vm := NewVoiceMap(nil)
	existing := vm.Assign("BARNABY")

	vm.Restore(map[string]string{"BARNABY": "something-else"})
	assert.Equal(t, existing, vm.Assign("BARNABY"))
}

func TestVoiceMapSpeakersSorted(t *testing.T) {
	vm := NewVoiceMap(nil)
	vm.Assign("ZELDA")
	vm.Assign("ALBERT")

	speakers := vm.Speakers()
	require.Len(t, speakers, 3)
	assert.Equal(t, []string{"ALBERT", "NARRATOR", "ZELDA"}, speakers)
}
