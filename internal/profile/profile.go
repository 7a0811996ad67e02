package profile

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Profile defines encoder settings for a publishing target. Every profile
// encodes H.264 video and AAC audio; profiles differ in size limits and
// quality trade-offs.
type Profile interface {
	// GetName returns the profile name
	GetName() string

	// GetMaxDimensions returns the largest allowed frame size; zero keeps
	// the source size
	GetMaxDimensions() (width, height int)

	// GetMaxDuration returns the longest allowed narration in seconds; zero
	// means unlimited
	GetMaxDuration() int

	// GetCRF returns the x264 constant rate factor
	GetCRF() int

	// GetPreset returns the x264 speed preset
	GetPreset() string

	// GetAudioBitrate returns the AAC bitrate
	GetAudioBitrate() string
}

var profiles = make(map[string]Profile)

// Register adds a profile to the registry
func Register(p Profile) {
	profiles[p.GetName()] = p
}

// Get returns a profile by name
func Get(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unsupported profile: %s", name)
	}
	return p, nil
}

// GetSupportedProfiles returns the registered profile names, sorted
func GetSupportedProfiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
