package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/springsoup/components"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr error
	}{
		{"toggle_rain", Command{Name: CmdToggleRain}, nil},
		{" clear ", Command{Name: CmdClear}, nil},
		{"draw_with:goo", Command{Name: CmdDrawWith, Kind: components.Goo}, nil},
		{"draw_with:random", Command{Name: CmdDrawWith, Kind: components.Random}, nil},
		{"render_resolution:6", Command{Name: CmdRenderResolution, Resolution: 6}, nil},
		{"draw_with:wall", Command{}, ErrBadArgument},
		{"draw_with:lava", Command{}, ErrBadArgument},
		{"render_resolution:0", Command{}, ErrBadArgument},
		{"render_resolution:x", Command{}, ErrBadArgument},
		{"toggle_rain:1", Command{}, ErrBadArgument},
		{"explode", Command{}, ErrUnknownCommand},
		{"", Command{}, ErrUnknownCommand},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCommand(tc.in)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
			if round, err := ParseCommand(got.String()); err != nil || round != got {
				t.Errorf("String() %q does not parse back: %v", got.String(), err)
			}
		})
	}
}

func TestCommandsApplyAtNextStep(t *testing.T) {
	w := testWorld(t, nil)
	spawnAt(t, w, components.Water, 0, 0)

	for _, s := range []string{"toggle_gravity", "draw_with:oil", "render_resolution:7", "clear"} {
		cmd, err := ParseCommand(s)
		require.NoError(t, err)
		require.NoError(t, w.Enqueue(cmd))
	}

	// nothing changes until the world steps
	assert.False(t, w.Toggles().Gravity)
	assert.Equal(t, 1, w.Pools().Particles.Live())

	w.Step(0.016)

	assert.True(t, w.Toggles().Gravity)
	assert.Equal(t, components.Oil, w.DrawKind())
	assert.Equal(t, 7, w.RenderGrid().Resolution())
	assert.Zero(t, w.Pools().Particles.Live())
	assert.Zero(t, w.Latest().Counts.Particles)
}

func TestEnqueueQueueFull(t *testing.T) {
	w := testWorld(t, nil)
	cmd := Command{Name: CmdToggleRain}

	for i := 0; i < commandQueueSize; i++ {
		require.NoError(t, w.Enqueue(cmd))
	}
	assert.ErrorIs(t, w.Enqueue(cmd), ErrQueueFull)

	w.Step(0.016)
	// an even number of toggles leaves rain off
	assert.False(t, w.Toggles().Rain)
	assert.NoError(t, w.Enqueue(cmd))
}
