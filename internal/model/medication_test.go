package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrimsAndAssignsID(t *testing.T) {
	m, err := New("  Aspirin ", " 100mg", nil)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", m.Name)
	assert.Equal(t, "100mg", m.Dosage)
	assert.NotEmpty(t, m.ID)

	other, err := New("Aspirin", "100mg", nil)
	require.NoError(t, err)
	assert.NotEqual(t, m.ID, other.ID)
}

func TestNewRejectsEmptyFields(t *testing.T) {
	tests := []struct {
		name, dosage string
		want         string
	}{
		{"", "100mg", "name is required"},
		{"Aspirin", "   ", "dosage is required"},
		{" ", "", "name is required, dosage is required"},
		{strings.Repeat("x", 201), "1", "name must not exceed 200 characters"},
	}
	for _, tt := range tests {
		_, err := New(tt.name, tt.dosage, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestSameAsIgnoresTime(t *testing.T) {
	morning := ClockTime(8, 0)
	evening := ClockTime(20, 30)
	a := Medication{Name: "Aspirin", Dosage: "100mg", TimeOfDay: &morning}
	b := Medication{Name: "Aspirin", Dosage: "100mg", TimeOfDay: &evening}
	c := Medication{Name: "Aspirin", Dosage: "200mg"}

	assert.True(t, a.SameAs(b))
	assert.False(t, a.SameAs(c))
}

func TestMatchesPrefersID(t *testing.T) {
	a := Medication{ID: "1", Name: "Aspirin", Dosage: "100mg"}
	b := Medication{ID: "2", Name: "Aspirin", Dosage: "100mg"}
	legacy := Medication{Name: "Aspirin", Dosage: "100mg"}

	assert.False(t, a.Matches(b))
	assert.True(t, a.Matches(legacy))
	assert.True(t, a.Matches(Medication{ID: "1", Name: "renamed", Dosage: "x"}))
}

func TestReminderID(t *testing.T) {
	assert.Equal(t, "abc", Medication{ID: "abc", Name: "A", Dosage: "1"}.ReminderID())
	assert.Equal(t, "Aspirin-100mg", Medication{Name: "Aspirin", Dosage: "100mg"}.ReminderID())
}

func TestParseClock(t *testing.T) {
	at, err := ParseClock("08:05")
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Equal(t, 8, at.Hour())
	assert.Equal(t, 5, at.Minute())

	single, err := ParseClock("8:00")
	require.NoError(t, err)
	assert.Equal(t, 8, single.Hour())

	none, err := ParseClock("  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, bad := range []string{"8", "24:00", "12:60", "ab:cd", "7:5", "+8:00", "-1:00", "08:+5", "08:-0", "008:00"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeLabel(t *testing.T) {
	at := ClockTime(7, 3)
	assert.Equal(t, "07:03", Medication{TimeOfDay: &at}.TimeLabel())
	assert.Equal(t, "-", Medication{}.TimeLabel())
}
