package tui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# feedr

Control your pet feeder from the terminal.

## Screens

| Key | Screen |
|-----|--------|
| f   | Feed now |
| s   | Schedules |
| p   | Pets |

## Keys

- **tab / shift+tab** switch the active pet
- **r** refresh pets and recent feedings
- **j / k** move within lists
- **a** add a record on the schedules and pets screens
- **d** delete the highlighted record
- **L** log out
- **?** toggle this help
- **q / ctrl+c** quit

Recent feedings update live; a feeding triggered from another device shows
up without a refresh.
`

// viewHelp renders the help screen with glamour. Rendering failures fall
// back to the raw markdown.
func (m Model) viewHelp() string {
	width := m.width
	if width <= 0 || width > 80 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out + helpStyle.Render("press any key to close")
}
