package state

import (
	"testing"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	old, new int
}

func TestValue_Set(t *testing.T) {
	v := NewValue(1, true)

	var changes []change
	unsubscribe := v.Subscribe(func(old, new int) {
		changes = append(changes, change{old, new})
	})

	require.NoError(t, v.Set(2))
	require.NoError(t, v.Set(2))
	require.NoError(t, v.Set(3))
	unsubscribe()
	require.NoError(t, v.Set(4))

	assert.Equal(t, []change{{1, 2}, {2, 3}}, changes)
	assert.Equal(t, 4, v.Get())
}

func TestValue_Authority(t *testing.T) {
	tests := []struct {
		name          string
		authoritative bool
		write         func(v *Value[string]) error
		want          string
		wantCode      apperrors.Code
	}{
		{
			name:          "owner sets",
			authoritative: true,
			write:         func(v *Value[string]) error { return v.Set("countdown") },
			want:          "countdown",
		},
		{
			name:          "replica cannot set",
			authoritative: false,
			write:         func(v *Value[string]) error { return v.Set("countdown") },
			want:          "waiting",
			wantCode:      apperrors.CodeAuthorityViolation,
		},
		{
			name:          "replica replicates",
			authoritative: false,
			write:         func(v *Value[string]) error { return v.Replicate("countdown") },
			want:          "countdown",
		},
		{
			name:          "owner rejects replicated values",
			authoritative: true,
			write:         func(v *Value[string]) error { return v.Replicate("countdown") },
			want:          "waiting",
			wantCode:      apperrors.CodeAuthorityViolation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValue("waiting", tt.authoritative)
			err := tt.write(v)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, v.Get())
		})
	}
}
