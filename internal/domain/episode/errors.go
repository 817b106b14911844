package episode

import "errors"

var (
	ErrEpisodeNotFound = errors.New("episode does not exist")
	// ErrNonexistentEpisode is returned when a subrecord names an episode
	// that does not exist.
	ErrNonexistentEpisode = errors.New("nonexistent episode")
	errNotBool            = errors.New("expected a boolean")
)
