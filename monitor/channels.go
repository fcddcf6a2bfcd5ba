package main

import (
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// handleChannelToggle shows or hides one trace.
func handleChannelToggle(state *appState, ch int) {
	state.visible[ch] = !state.visible[ch]
	state.scopeWidget.SetChannelVisible(ch, state.visible[ch])
	updateChannelButtons(state)
}

// updateChannelButtons syncs the toggle buttons with the visibility state and
// the configured channel names.
func updateChannelButtons(state *appState) {
	names := state.cfg.ChannelNames()
	for ch, btn := range state.channelBtns {
		if btn == nil {
			continue
		}
		btn.SetText(names[ch])
		updateChannelButton(btn, state.visible[ch])
	}
}

// updateChannelButton updates a single toggle's visual state.
func updateChannelButton(btn *widget.Button, visible bool) {
	if visible {
		btn.Importance = widget.HighImportance
		btn.SetIcon(theme.VisibilityIcon())
	} else {
		btn.Importance = widget.MediumImportance
		btn.SetIcon(theme.VisibilityOffIcon())
	}
	btn.Refresh()
}
