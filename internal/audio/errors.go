package audio

import "errors"

var (
	// ErrDecode reports a malformed or empty audio payload. A failed item is
	// skipped; the rest of the queue continues.
	ErrDecode = errors.New("audio: decode failed")

	// ErrPlaybackStart reports a platform context that could not be created
	// or resumed. The current item is abandoned and the next one is tried.
	ErrPlaybackStart = errors.New("audio: playback start failed")

	// ErrAmbianceFetch reports a non-success HTTP status while fetching an
	// ambiance resource.
	ErrAmbianceFetch = errors.New("audio: ambiance fetch failed")

	// ErrAmbianceIntegrity reports an ambiance payload that failed the
	// minimum-size sanity check.
	ErrAmbianceIntegrity = errors.New("audio: ambiance payload failed integrity check")
)
