// Package model defines the core persona data types.
package model

import "time"

// Kind classifies a memory record.
type Kind string

const (
	KindExperience  Kind = "experience"
	KindFact        Kind = "fact"
	KindEmotion     Kind = "emotion"
	KindInteraction Kind = "interaction"
	KindNarrative   Kind = "narrative"
)

// Platform identifies where an exchange happened.
type Platform string

const (
	PlatformChat     Platform = "chat"
	PlatformTwitter  Platform = "twitter"
	PlatformTelegram Platform = "telegram"
)

// ValidKinds are the allowed memory kinds.
var ValidKinds = map[Kind]bool{
	KindExperience:  true,
	KindFact:        true,
	KindEmotion:     true,
	KindInteraction: true,
	KindNarrative:   true,
}

// ValidPlatforms are the allowed platforms.
var ValidPlatforms = map[Platform]bool{
	PlatformChat:     true,
	PlatformTwitter:  true,
	PlatformTelegram: true,
}

// MemoryRecord is one stored, timestamped fragment. Records are immutable
// once created; Associations must not be modified by callers.
type MemoryRecord struct {
	ID               string         `json:"id"`
	Content          string         `json:"content"`
	Kind             Kind           `json:"kind"`
	CreatedAt        time.Time      `json:"createdAt"`
	EmotionalContext EmotionalState `json:"emotionalContext"`
	Platform         Platform       `json:"platform"`
	Importance       float64        `json:"importance"`
	Associations     []string       `json:"associations"`
}

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !ValidKinds[k] {
		return "", &ValidationError{Field: "kind", Msg: "unknown kind " + s}
	}
	return k, nil
}

// ParsePlatform validates a platform string. Empty defaults to chat.
func ParsePlatform(s string) (Platform, error) {
	if s == "" {
		return PlatformChat, nil
	}
	p := Platform(s)
	if !ValidPlatforms[p] {
		return "", &ValidationError{Field: "platform", Msg: "unknown platform " + s}
	}
	return p, nil
}
