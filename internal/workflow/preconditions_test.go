package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() LessonDraft {
	return LessonDraft{
		Topic:           "Grammar — Modal Verbs",
		PreferredDate:   "2025-06-01",
		PreferredTime:   "14:00",
		DurationMinutes: 60,
	}
}

func TestValidateLessonDraft(t *testing.T) {
	require.NoError(t, ValidateLessonDraft(validDraft()))

	withAlt := validDraft()
	withAlt.AltDate = "2025-06-02"
	withAlt.AltTime = "09:30"
	require.NoError(t, ValidateLessonDraft(withAlt))

	cases := map[string]func(*LessonDraft){
		"blank topic":      func(d *LessonDraft) { d.Topic = "   " },
		"missing date":     func(d *LessonDraft) { d.PreferredDate = "" },
		"missing time":     func(d *LessonDraft) { d.PreferredTime = "" },
		"bad date":         func(d *LessonDraft) { d.PreferredDate = "01/06/2025" },
		"bad time":         func(d *LessonDraft) { d.PreferredTime = "2pm" },
		"alt date alone":   func(d *LessonDraft) { d.AltDate = "2025-06-02" },
		"bad alt time": func(d *LessonDraft) {
			d.AltDate = "2025-06-02"
			d.AltTime = "25:00"
		},
		"odd duration":     func(d *LessonDraft) { d.DurationMinutes = 50 },
		"missing duration": func(d *LessonDraft) { d.DurationMinutes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := validDraft()
			mutate(&d)
			err := ValidateLessonDraft(d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidateZoomLink(t *testing.T) {
	require.NoError(t, ValidateZoomLink("https://zoom.us/j/123"))
	require.NoError(t, ValidateZoomLink("http://example.zoom.us/j/987?pwd=abc"))

	err := ValidateZoomLink("")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Please provide a Zoom link", err.Error())

	for _, link := range []string{"zoom.us/j/123", "ftp://zoom.us/j/1", "https://", "not a url"} {
		err := ValidateZoomLink(link)
		require.ErrorIs(t, err, ErrValidation, link)
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "zoomLink", vErr.Field)
	}
}
