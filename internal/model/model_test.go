package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for k := range ValidKinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("gossip")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "kind", ve.Field)

	_, err = ParseKind("")
	assert.Error(t, err)
}

func TestParsePlatform(t *testing.T) {
	got, err := ParsePlatform("")
	require.NoError(t, err)
	assert.Equal(t, PlatformChat, got)

	got, err = ParsePlatform("twitter")
	require.NoError(t, err)
	assert.Equal(t, PlatformTwitter, got)

	_, err = ParsePlatform("fax")
	assert.Equal(t, ErrKindValidation, KindOf(err))
}

func TestParseEmotionalState(t *testing.T) {
	got, err := ParseEmotionalState("")
	require.NoError(t, err)
	assert.Equal(t, StateNeutral, got)

	for _, s := range AllStates {
		assert.True(t, s.Valid())
		got, err := ParseEmotionalState(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err = ParseEmotionalState("grumpy")
	assert.Error(t, err)
	assert.False(t, EmotionalState("grumpy").Valid())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"validation", &ValidationError{Field: "input", Msg: "empty"}, ErrKindValidation},
		{"persistence", &PersistenceError{Op: "append", Err: errors.New("disk")}, ErrKindPersistence},
		{"completion", &CompletionError{Reason: ReasonTimeout}, ErrKindCompletion},
		{"wrapped", fmt.Errorf("turn: %w", &CompletionError{Reason: ReasonAuth}), ErrKindCompletion},
		{"joined", errors.Join(&CompletionError{Reason: ReasonProvider}, &PersistenceError{Op: "save"}), ErrKindCompletion},
		{"plain", errors.New("boom"), ErrKindUnknown},
		{"nil", nil, ErrKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestCompletionError(t *testing.T) {
	transient := map[CompletionReason]bool{
		ReasonRateLimit: true,
		ReasonTimeout:   true,
		ReasonAuth:      false,
		ReasonMalformed: false,
		ReasonProvider:  false,
		ReasonCanceled:  false,
	}
	for reason, want := range transient {
		assert.Equal(t, want, (&CompletionError{Reason: reason}).Transient(), reason)
	}

	inner := errors.New("503 from upstream")
	err := &CompletionError{Reason: ReasonRateLimit, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "completion: rate_limit: 503 from upstream", err.Error())
	assert.Equal(t, "completion: timeout", (&CompletionError{Reason: ReasonTimeout}).Error())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation: content: must not be empty", (&ValidationError{Field: "content", Msg: "must not be empty"}).Error())
	assert.Equal(t, "validation: bad", (&ValidationError{Msg: "bad"}).Error())

	inner := errors.New("locked")
	pe := &PersistenceError{Op: "prune", Err: inner}
	assert.Equal(t, "persistence: prune: locked", pe.Error())
	assert.ErrorIs(t, pe, inner)
}
