package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/controlgap/internal/models"
)

func press(t *testing.T, b Browser, keys ...tea.KeyMsg) Browser {
	t.Helper()
	for _, k := range keys {
		next, _ := b.Update(k)
		var ok bool
		b, ok = next.(Browser)
		require.True(t, ok)
	}
	return b
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testBrowser() Browser {
	cov := 60.0
	edges := []models.Edge{
		{ControlID: "C-2", RequirementID: "21.2b", MappingType: "Primary", Coverage: &cov,
			Owner: "SOC", RemediationPlan: "Automate triage", TargetDate: "2024-09-30", Known: true},
		{ControlID: "C-3", RequirementID: "21.2b", MappingType: "Supporting"},
	}
	return NewBrowser("Gap Report", testFindings(), edges)
}

func TestBrowser_SortedByPriority(t *testing.T) {
	b := testBrowser()

	var ids []string
	for _, f := range b.Visible() {
		ids = append(ids, f.RequirementID)
	}
	assert.Equal(t, []string{"21.2a", "21.2b", "A.8.2", "A.5.1"}, ids)

	selected, ok := b.Selected()
	require.True(t, ok)
	assert.Equal(t, "21.2a", selected.RequirementID)
}

func TestBrowser_Navigation(t *testing.T) {
	b := testBrowser()

	b = press(t, b, tea.KeyMsg{Type: tea.KeyDown}, runeKey('j'))
	assert.Equal(t, 2, b.Cursor())

	b = press(t, b, runeKey('j'), runeKey('j'), runeKey('j'))
	assert.Equal(t, 3, b.Cursor(), "cursor stops at the last finding")

	b = press(t, b, runeKey('k'), tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, b.Cursor())

	b = press(t, b, runeKey('G'))
	assert.Equal(t, 3, b.Cursor())
	b = press(t, b, runeKey('g'))
	assert.Equal(t, 0, b.Cursor())

	b = press(t, b, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, b.Cursor())
}

func TestBrowser_DetailPane(t *testing.T) {
	b := testBrowser()
	b = press(t, b, runeKey('j'), tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, b.DetailOpen())

	view := b.View()
	assert.Contains(t, view, "NIS2 21.2b")
	assert.Contains(t, view, "Status: PARTIAL (Max 60%)   Max coverage: 60%")
	assert.Contains(t, view, "C-2 (Primary, 60%) owner: SOC")
	assert.Contains(t, view, "plan: Automate triage (due 2024-09-30)")
	assert.Contains(t, view, "C-3 (Supporting, unknown) [not in catalogue]")

	b = press(t, b, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, b.DetailOpen())

	b = press(t, b, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, b.DetailOpen())
}

func TestBrowser_FilterCycle(t *testing.T) {
	b := testBrowser()
	assert.Equal(t, models.Priority(""), b.Filter())

	want := []struct {
		filter models.Priority
		count  int
	}{
		{models.PriorityCritical, 1},
		{models.PriorityHigh, 1},
		{models.PriorityMedium, 1},
		{models.PriorityLow, 1},
		{"", 4},
	}
	for _, w := range want {
		b = press(t, b, runeKey('f'))
		assert.Equal(t, w.filter, b.Filter())
		assert.Len(t, b.Visible(), w.count)
		assert.Equal(t, 0, b.Cursor())
	}

	b = press(t, b, runeKey('f'), runeKey('f'))
	assert.Contains(t, b.View(), "Showing 1 of 4 requirements • Filter: High")
}

func TestBrowser_EmptyFilterResult(t *testing.T) {
	b := NewBrowser("Gap Report", testFindings()[:1], nil)
	b = press(t, b, runeKey('f'))

	_, ok := b.Selected()
	assert.False(t, ok)
	b = press(t, b, tea.KeyMsg{Type: tea.KeyEnter}, runeKey('j'))
	assert.False(t, b.DetailOpen())
	assert.Contains(t, b.View(), "No findings match the current filter.")
}

func TestBrowser_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{runeKey('q'), {Type: tea.KeyCtrlC}} {
		next, cmd := testBrowser().Update(key)
		assert.True(t, next.(Browser).Stopped())
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestBrowser_ScrollsWithCursor(t *testing.T) {
	var findings []models.Finding
	for i := 0; i < 40; i++ {
		findings = append(findings, models.Finding{RequirementID: string(rune('A'+i%26)) + "-req", Priority: models.PriorityHigh})
	}
	b := NewBrowser("Many", findings, nil)
	next, _ := b.Update(tea.WindowSizeMsg{Width: 80, Height: 14})
	b = next.(Browser)

	for i := 0; i < 20; i++ {
		b = press(t, b, runeKey('j'))
	}
	assert.Equal(t, 20, b.Cursor())
	assert.Equal(t, 15, b.offset)
	assert.Contains(t, b.View(), "... and 19 more")
}
