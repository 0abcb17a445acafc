package auth

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aichat/internal/app"
)

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func enter(t *testing.T, m *Model) tea.Msg {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestNew_StartsOnStateStage(t *testing.T) {
	state := app.NewState()
	m := New(state)
	assert.Equal(t, app.StageEnterSecret, m.stage)
	assert.Equal(t, 256, m.input.CharLimit)

	state.SetStage(app.StageEnterPin)
	m = New(state)
	assert.Equal(t, app.StageEnterPin, m.stage)
	assert.Equal(t, 4, m.input.CharLimit)
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState())
	assert.NotNil(t, m.Init())
	assert.True(t, m.CapturesInput())
}

func TestSubmitSecret(t *testing.T) {
	m := New(app.NewState())
	typeText(m, "sk-or-test")

	msg := enter(t, m)
	require.IsType(t, app.RegisterSecretMsg{}, msg)
	assert.Equal(t, "sk-or-test", msg.(app.RegisterSecretMsg).Secret)
	assert.True(t, m.busy)

	// A second enter while the first request is running is ignored.
	assert.Nil(t, enter(t, m))
}

func TestSubmitEmptyIsIgnored(t *testing.T) {
	m := New(app.NewState())
	typeText(m, "   ")
	assert.Nil(t, enter(t, m))
	assert.False(t, m.busy)
}

func TestSubmitPin(t *testing.T) {
	state := app.NewState()
	state.SetStage(app.StageEnterPin)
	m := New(state)

	typeText(m, "12a34")
	assert.Equal(t, "1234", m.input.Value())

	msg := enter(t, m)
	require.IsType(t, app.LoginMsg{}, msg)
	assert.Equal(t, "1234", msg.(app.LoginMsg).Pin)
}

func TestPinLengthIsCapped(t *testing.T) {
	state := app.NewState()
	state.SetStage(app.StageEnterPin)
	m := New(state)

	typeText(m, "123456")
	assert.Equal(t, "1234", m.input.Value())
}

func TestRegisteredMovesToPinForm(t *testing.T) {
	state := app.NewState()
	m := New(state)
	typeText(m, "sk-or-test")
	enter(t, m)

	// The root model records the PIN and stage before the tab sees the result.
	state.SetIssuedPin("4821")
	state.SetStage(app.StageEnterPin)
	m.Update(app.RegisteredMsg{Pin: "4821"})

	assert.False(t, m.busy)
	assert.Equal(t, app.StageEnterPin, m.stage)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, ansi.Strip(m.View()), "4821")
}

func TestRegisterFailureKeepsSecretForm(t *testing.T) {
	state := app.NewState()
	m := New(state)
	typeText(m, "bad")
	enter(t, m)

	state.SetAuthError("Invalid API key.")
	m.Update(app.RegisteredMsg{Error: assert.AnError})

	assert.False(t, m.busy)
	assert.Equal(t, app.StageEnterSecret, m.stage)
	assert.Equal(t, "bad", m.input.Value())
	assert.Contains(t, ansi.Strip(m.View()), "Invalid API key.")
}

func TestLoggedInResetsInput(t *testing.T) {
	state := app.NewState()
	state.SetStage(app.StageEnterPin)
	m := New(state)
	typeText(m, "1234")
	enter(t, m)

	m.Update(app.LoggedInMsg{Error: assert.AnError})
	assert.False(t, m.busy)
	assert.Empty(t, m.input.Value())
}

func TestNewKeyAndBack(t *testing.T) {
	state := app.NewState()
	state.SetStage(app.StageEnterPin)
	m := New(state)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, app.StageEnterSecret, m.stage)
	assert.Equal(t, app.StageEnterSecret, state.Stage())
	assert.Contains(t, ansi.Strip(m.View()), "back to PIN")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, app.StageEnterPin, m.stage)
	assert.Equal(t, app.StageEnterPin, state.Stage())
}

func TestBackWithoutConfiguredKeyIsIgnored(t *testing.T) {
	state := app.NewState()
	m := New(state)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, app.StageEnterSecret, m.stage)
	assert.NotContains(t, ansi.Strip(m.View()), "back to PIN")
}

func TestFollowsStateStage(t *testing.T) {
	state := app.NewState()
	state.SetStage(app.StageEnterPin)
	m := New(state)

	// The key was removed from the environment.
	state.SetStage(app.StageEnterSecret)
	m.Update(nil)
	assert.Equal(t, app.StageEnterSecret, m.stage)
}

func TestModel_View(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(100, 30)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "AI Chat")
	assert.Contains(t, view, "API key")
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	assert.Len(t, m.ShortHelp(), 2)
	assert.NotEmpty(t, m.FullHelp())
}
