package autocomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busreg-server-go/models"
)

type recorder struct {
	calls []*int64
}

func (r *recorder) onSelect(id *int64) {
	r.calls = append(r.calls, id)
}

func TestModel_StartsIdle(t *testing.T) {
	m := New(sampleDirectory(), nil)
	assert.Equal(t, Idle, m.State())
	assert.False(t, m.Open())
	assert.Nil(t, m.Selected())
	assert.Equal(t, DefaultLimit, m.Limit())
}

func TestModel_TypingSearches(t *testing.T) {
	rec := &recorder{}
	m := New(sampleDirectory(), rec.onSelect)

	m.SetQuery("cent")
	assert.Equal(t, Searching, m.State())
	assert.True(t, m.Open())
	assert.Equal(t, []string{"Central Park", "Central Station"}, names(m.Candidates()))
	assert.Empty(t, rec.calls, "typing must not emit a selection")
}

func TestModel_ChooseCommitsSelection(t *testing.T) {
	rec := &recorder{}
	m := New(sampleDirectory(), rec.onSelect)

	m.SetQuery("cent")
	require.True(t, m.Choose(1))

	assert.Equal(t, Selected, m.State())
	assert.Equal(t, "Central Station", m.Query())
	assert.False(t, m.Open())
	require.Len(t, rec.calls, 1)
	require.NotNil(t, rec.calls[0])
	assert.Equal(t, int64(1), *rec.calls[0])
}

func TestModel_NewSelectionOverwrites(t *testing.T) {
	rec := &recorder{}
	m := New(sampleDirectory(), rec.onSelect)

	m.SetQuery("cent")
	m.Choose(0)
	m.SetQuery("north")
	require.True(t, m.ChooseID(2))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, int64(2), *rec.calls[1])
	assert.Equal(t, int64(2), m.Selected().ID)
	assert.Equal(t, "North Yard", m.Query())
}

func TestModel_ClearAfterSelection(t *testing.T) {
	rec := &recorder{}
	m := New(sampleDirectory(), rec.onSelect)

	m.SetQuery("north")
	m.Choose(0)
	m.Clear()

	assert.Equal(t, Idle, m.State())
	assert.Equal(t, "", m.Query())
	assert.Nil(t, m.Selected())
	require.Len(t, rec.calls, 2)
	assert.Nil(t, rec.calls[1], "clear must notify with nil")
}

func TestModel_EmptyingTextClears(t *testing.T) {
	rec := &recorder{}
	m := New(sampleDirectory(), rec.onSelect)

	m.SetQuery("n")
	m.SetQuery("")

	assert.Equal(t, Idle, m.State())
	require.Len(t, rec.calls, 1)
	assert.Nil(t, rec.calls[0])
}

func TestModel_DismissKeepsTextAndSelection(t *testing.T) {
	rec := &recorder{}
	m := New(sampleDirectory(), rec.onSelect)

	m.SetQuery("cent")
	m.Dismiss()
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, "cent", m.Query())
	assert.False(t, m.Open())

	m.Choose(0)
	m.SetQuery("centr")
	m.Dismiss()
	assert.Equal(t, Selected, m.State(), "committed choice survives dismissal")
	assert.Equal(t, "centr", m.Query())
	assert.Len(t, rec.calls, 1, "dismiss must not emit")
}

func TestModel_FocusReopensWithoutRecompute(t *testing.T) {
	m := New(sampleDirectory(), nil)
	m.SetQuery("cent")
	m.Dismiss()

	before := m.Candidates()
	m.Focus()
	assert.True(t, m.Open())
	assert.Equal(t, Searching, m.State())
	assert.Equal(t, before, m.Candidates())
}

func TestModel_FocusWithoutCandidates(t *testing.T) {
	m := New(sampleDirectory(), nil)
	m.Focus()
	assert.False(t, m.Open())
}

func TestModel_EmptyDirectory(t *testing.T) {
	m := New(nil, nil)
	m.SetQuery("central")
	assert.Empty(t, m.Candidates())
	assert.False(t, m.Open(), "dropdown not shown")
	assert.True(t, m.NoMatches())
	assert.False(t, m.Choose(0))
}

func TestModel_WithLimit(t *testing.T) {
	m := New(sampleDirectory(), nil, WithLimit(1))
	m.SetQuery("cent")
	assert.Equal(t, []string{"Central Park"}, names(m.Candidates()))
}

func TestModel_ChooseIDFirstMatchOnDuplicates(t *testing.T) {
	dir := sampleDirectory()
	dir = append(dir, dir[0])
	dir[3].Name = "Central Annex"

	rec := &recorder{}
	m := New(dir, rec.onSelect)
	m.SetQuery("central")
	require.True(t, m.ChooseID(1))
	assert.Equal(t, "Central Annex", m.Query(), "first candidate in result order wins")
}

func TestModel_SetDirectoryRecomputes(t *testing.T) {
	m := New(nil, nil)
	m.SetQuery("north")
	assert.Empty(t, m.Candidates())

	m.SetDirectory(sampleDirectory())
	assert.Equal(t, []string{"North Yard"}, names(m.Candidates()))
}

func TestModel_DirectoryReplacedWhileDismissed(t *testing.T) {
	rec := &recorder{}
	m := New(sampleDirectory(), rec.onSelect)

	m.SetQuery("cent")
	m.Dismiss()
	require.Equal(t, Idle, m.State())

	m.SetDirectory([]models.BusStop{{ID: 2, Name: "North Yard"}})
	assert.Empty(t, m.Candidates(), "candidates follow the new directory")

	m.Focus()
	assert.False(t, m.Open())
	assert.Equal(t, Idle, m.State())
	assert.False(t, m.Choose(0))
	assert.Empty(t, rec.calls)
}

func TestModel_DirectoryArrivesAfterTyping(t *testing.T) {
	m := New(nil, nil)

	m.SetQuery("cent")
	m.Dismiss()
	m.SetDirectory(sampleDirectory())
	m.Focus()

	assert.True(t, m.Open())
	assert.Equal(t, Searching, m.State(), "an open list without a selection is searching")
	assert.Equal(t, []string{"Central Park", "Central Station"}, names(m.Candidates()))
}

func TestModel_FocusAfterSelectionStaysSelected(t *testing.T) {
	m := New(sampleDirectory(), nil)
	m.SetQuery("cent")
	m.Choose(0)
	m.SetDirectory(sampleDirectory())

	m.Focus()
	assert.Equal(t, Selected, m.State())
}
