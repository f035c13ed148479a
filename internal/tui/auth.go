package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"journey-cli/internal/api"
	"journey-cli/internal/model"
)

type authField int

const (
	fieldEmail authField = iota
	fieldPassword
	fieldName
	fieldRole
	fieldAge
	fieldLocation
	fieldInterests
)

var fieldLabels = map[authField]string{
	fieldEmail:     "Email",
	fieldPassword:  "Password",
	fieldName:      "Name",
	fieldRole:      "Role (Discipler/Disciple)",
	fieldAge:       "Age",
	fieldLocation:  "Location",
	fieldInterests: "Interests (comma-separated)",
}

type authForm struct {
	signup bool
	order  []authField
	inputs map[authField]*textinput.Model
	focus  int
	busy   bool
}

func newAuthForm(signup bool) authForm {
	f := authForm{signup: signup, inputs: map[authField]*textinput.Model{}}
	f.order = []authField{fieldEmail, fieldPassword}
	if signup {
		f.order = []authField{fieldName, fieldEmail, fieldPassword, fieldRole, fieldAge, fieldLocation, fieldInterests}
	}
	for _, k := range f.order {
		in := newPrompt(fieldLabels[k])
		if k == fieldPassword {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs[k] = &in
	}
	f.inputs[f.order[0]].Focus()
	return f
}

func (f *authForm) value(k authField) string {
	if in, ok := f.inputs[k]; ok {
		return strings.TrimSpace(in.Value())
	}
	return ""
}

func (f *authForm) move(delta int) {
	f.inputs[f.order[f.focus]].Blur()
	f.focus = (f.focus + delta + len(f.order)) % len(f.order)
	f.inputs[f.order[f.focus]].Focus()
}

func (m appModel) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := &m.auth
	if k, ok := msg.(tea.KeyMsg); ok {
		if f.busy {
			return m, nil
		}
		switch k.String() {
		case "tab", "down":
			f.move(1)
			return m, nil
		case "shift+tab", "up":
			f.move(-1)
			return m, nil
		case "ctrl+t":
			email := f.value(fieldEmail)
			m.auth = newAuthForm(!f.signup)
			m.auth.inputs[fieldEmail].SetValue(email)
			if m.auth.signup {
				m.screen = screenSignup
			} else {
				m.screen = screenLogin
			}
			m.setStatus("", false)
			return m, textinput.Blink
		case "esc":
			return m, tea.Quit
		case "enter":
			if f.focus < len(f.order)-1 {
				f.move(1)
				return m, nil
			}
			return m.submitAuth()
		}
	}
	in := f.inputs[f.order[f.focus]]
	updated, cmd := in.Update(msg)
	*in = updated
	return m, cmd
}

func (m appModel) submitAuth() (tea.Model, tea.Cmd) {
	f := &m.auth
	if f.value(fieldEmail) == "" || f.value(fieldPassword) == "" {
		m.setStatus("Email and password are required.", true)
		return m, nil
	}
	f.busy = true
	m.setStatus("Working…", false)
	ctx, sess := m.ctx, m.sess
	if !f.signup {
		email, pw := f.value(fieldEmail), f.inputs[fieldPassword].Value()
		return m, func() tea.Msg {
			u, err := sess.Login(ctx, email, pw)
			return loginDoneMsg{user: u, err: err}
		}
	}
	age, _ := strconv.Atoi(f.value(fieldAge))
	nu := model.NewUser{
		Name:      f.value(fieldName),
		Email:     f.value(fieldEmail),
		Password:  f.inputs[fieldPassword].Value(),
		Role:      model.Role(f.value(fieldRole)),
		Age:       age,
		Location:  f.value(fieldLocation),
		Interests: model.SplitInterests(f.value(fieldInterests)),
	}
	return m, func() tea.Msg {
		u, err := sess.Signup(ctx, nu)
		return signupDoneMsg{user: u, err: err}
	}
}

func (m appModel) onLogin(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.auth.busy = false
	if msg.err != nil {
		m.setStatus("Login failed: "+api.DetailOf(msg.err), true)
		return m, nil
	}
	m.setStatus("Signed in as "+msg.user.Name+".", false)
	m.screen = screenBoards
	if id := strings.TrimSpace(m.opts.BoardID); id != "" {
		return m, m.openBoardCmd(id)
	}
	return m, m.loadBoardsCmd()
}

func (m appModel) onSignup(msg signupDoneMsg) (tea.Model, tea.Cmd) {
	m.auth.busy = false
	if msg.err != nil {
		m.setStatus("Signup failed: "+api.DetailOf(msg.err), true)
		return m, nil
	}
	m.auth = newAuthForm(false)
	m.auth.inputs[fieldEmail].SetValue(msg.user.Email)
	m.auth.move(1)
	m.screen = screenLogin
	m.setStatus("Account created. Sign in to continue.", false)
	return m, textinput.Blink
}

func (m appModel) viewAuth() string {
	f := m.auth
	title := "Sign in"
	hint := "enter: next/submit • tab: next field • ctrl+t: create an account • esc: quit"
	if f.signup {
		title = "Create an account"
		hint = "enter: next/submit • tab: next field • ctrl+t: back to sign in • esc: quit"
	}
	rows := []string{styleTitle().Render("Spiritual Journey · " + title), ""}
	for i, k := range f.order {
		label := fieldLabels[k]
		st := styleMuted()
		if i == f.focus {
			st = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
		}
		rows = append(rows, st.Render(label), f.inputs[k].View(), "")
	}
	rows = append(rows, styleMuted().Render(hint))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
