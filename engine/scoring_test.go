package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	t.Parallel()

	m := NewKeyMap(map[string]string{"Red": "Left", "green": "right"})
	cases := []struct {
		color, key string
		want       Correctness
	}{
		{"red", "left", Correct},
		{"red", "right", Wrong},
		{"green", "right", Correct},
		{"green", "left", Wrong},
		{"RED", "LEFT", Correct},
		{"red", "", Unscored},
		{"blue", "left", Wrong},
	}
	for _, c := range cases {
		require.Equal(t, c.want, m.Score(c.color, c.key), "%s/%s", c.color, c.key)
	}
}

func TestScoreIgnoresWord(t *testing.T) {
	t.Parallel()

	m := NewKeyMap(map[string]string{"red": "left", "green": "right"})
	for _, word := range []string{"red", "green", "xxxx", ""} {
		tr := Trial{Word: word, Color: "green"}
		require.Equal(t, Correct, m.Score(tr.Color, "right"))
		require.Equal(t, Wrong, m.Score(tr.Color, "left"))
	}
}

func TestScoreDisabled(t *testing.T) {
	t.Parallel()

	var m KeyMap
	require.False(t, m.Enabled())
	require.Equal(t, Unscored, m.Score("red", "left"))
	require.NoError(t, m.Validate([]Trial{{Color: "purple"}}, nil))
}

func TestKeyMapValidate(t *testing.T) {
	t.Parallel()

	m := NewKeyMap(map[string]string{"red": "left", "green": "right"})
	keys := []string{"left", "right"}

	require.NoError(t, m.Validate([]Trial{{Color: "Red"}, {Color: "green"}}, keys))

	err := m.Validate([]Trial{{Color: "red"}, {ConditionIndex: 7, Color: "blue"}}, keys)
	require.True(t, ErrConfig.Equal(err))
	require.Contains(t, err.Error(), `condition 7: colour "blue"`)

	err = m.Validate(nil, []string{"left"})
	require.True(t, ErrConfig.Equal(err))
	require.Contains(t, err.Error(), `"right"`)
}

func TestFeedbackText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "correct", FeedbackText(Correct))
	require.Equal(t, "wrong", FeedbackText(Wrong))
	require.Equal(t, "no response", FeedbackText(Unscored))
}
