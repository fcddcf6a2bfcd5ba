package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createChannelsTab(state),
		createDisplayTab(state),
		createRecordTab(state),
		createSamplerTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 450))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 450))
	d.Show()
}

// reconnect restarts the chain so new settings take effect.
func reconnect(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	disconnect(state)
	handleConnect(state)
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := telemetry.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Display name to port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.Baud))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected == "" {
				return
			}
			selectedPort := portMap[portSelect.Selected]
			if selectedPort == "" {
				selectedPort = portSelect.Selected
			}

			changed := state.cfg.Serial.Port != selectedPort
			state.cfg.Serial.Port = selectedPort
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.Baud = baud
			}
			saveConfig(state)

			if changed && !state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createChannelsTab lets the user rename the four channels.
func createChannelsTab(state *appState) *container.TabItem {
	names := state.cfg.ChannelNames()
	var entries [sampler.NumChannels]*widget.Entry
	items := make([]*widget.FormItem, 0, sampler.NumChannels)
	for ch := range sampler.NumChannels {
		entries[ch] = widget.NewEntry()
		entries[ch].SetText(names[ch])
		items = append(items, &widget.FormItem{Text: fmt.Sprintf("Channel %d", ch), Widget: entries[ch]})
	}

	form := &widget.Form{
		Items: items,
		OnSubmit: func() {
			channels := make([]config.ChannelConfig, sampler.NumChannels)
			for ch, e := range entries {
				channels[ch].Name = e.Text
			}
			state.cfg.Channels = channels
			saveConfig(state)

			state.scopeWidget.SetChannelNames(state.cfg.ChannelNames())
			updateChannelButtons(state)
		},
	}

	return container.NewTabItem("Channels", form)
}

// createDisplayTab creates the Display configuration tab.
func createDisplayTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Display.WindowSeconds))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(strconv.Itoa(state.cfg.Display.AverageSamples))

	maxPointsEntry := widget.NewEntry()
	maxPointsEntry.SetText(strconv.Itoa(state.cfg.Display.MaxPoints))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Average Frames (0=disabled)", Widget: averageSamplesEntry},
			{Text: "Max Points", Widget: maxPointsEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil && ws > 0 && ws != state.cfg.Display.WindowSeconds {
				state.cfg.Display.WindowSeconds = ws
				// The next chain gets a window of the new length.
				state.history = nil
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil && avg >= 0 {
				state.cfg.Display.AverageSamples = avg
			}
			if mp, err := strconv.Atoi(maxPointsEntry.Text); err == nil && mp > 0 {
				state.cfg.Display.MaxPoints = mp
			}
			saveConfig(state)
			reconnect(state)
		},
	}

	return container.NewTabItem("Display", form)
}

// createRecordTab creates the recorder configuration tab.
func createRecordTab(state *appState) *container.TabItem {
	pathEntry := widget.NewEntry()
	pathEntry.SetPlaceHolder("empty = disabled")
	pathEntry.SetText(state.cfg.Record.Path)

	maxSizeEntry := widget.NewEntry()
	maxSizeEntry.SetText(strconv.Itoa(state.cfg.Record.MaxSizeMB))

	maxBackupsEntry := widget.NewEntry()
	maxBackupsEntry.SetText(strconv.Itoa(state.cfg.Record.MaxBackups))

	compressCheck := widget.NewCheck("", nil)
	compressCheck.SetChecked(state.cfg.Record.Compress)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "CSV File", Widget: pathEntry},
			{Text: "Max Size (MB)", Widget: maxSizeEntry},
			{Text: "Max Backups", Widget: maxBackupsEntry},
			{Text: "Compress Backups", Widget: compressCheck},
		},
		OnSubmit: func() {
			state.cfg.Record.Path = pathEntry.Text
			if ms, err := strconv.Atoi(maxSizeEntry.Text); err == nil && ms > 0 {
				state.cfg.Record.MaxSizeMB = ms
			}
			if mb, err := strconv.Atoi(maxBackupsEntry.Text); err == nil && mb >= 0 {
				state.cfg.Record.MaxBackups = mb
			}
			state.cfg.Record.Compress = compressCheck.Checked
			saveConfig(state)
			reconnect(state)
		},
	}

	return container.NewTabItem("Record", form)
}

// createSamplerTab edits the sampler settings used by the simulated keyboard.
func createSamplerTab(state *appState) *container.TabItem {
	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(state.cfg.Sampler.Interval.Std().String())

	alphaEntry := widget.NewEntry()
	alphaEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Sampler.Alpha))

	floorEntry := widget.NewEntry()
	floorEntry.SetText(strconv.Itoa(int(state.cfg.Sampler.Floor)))

	ceilingEntry := widget.NewEntry()
	ceilingEntry.SetText(strconv.Itoa(int(state.cfg.Sampler.Ceiling)))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Interval", Widget: intervalEntry},
			{Text: "Alpha (0-1]", Widget: alphaEntry},
			{Text: "Floor", Widget: floorEntry},
			{Text: "Ceiling", Widget: ceilingEntry},
		},
		OnSubmit: func() {
			next := state.cfg.Sampler
			if d, err := time.ParseDuration(intervalEntry.Text); err == nil {
				next.Interval = config.Duration(d)
			}
			if a, err := strconv.ParseFloat(alphaEntry.Text, 32); err == nil {
				next.Alpha = float32(a)
			}
			if f, err := strconv.ParseUint(floorEntry.Text, 10, 16); err == nil {
				next.Floor = uint16(f)
			}
			if c, err := strconv.ParseUint(ceilingEntry.Text, 10, 16); err == nil {
				next.Ceiling = uint16(c)
			}

			prev := state.cfg.Sampler
			state.cfg.Sampler = next
			if err := state.cfg.Validate(); err != nil {
				state.cfg.Sampler = prev
				dialog.ShowError(err, state.window)
				return
			}
			saveConfig(state)
			if state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Sampler", form)
}

// createMockTab creates the simulated keyboard configuration tab.
func createMockTab(state *appState) *container.TabItem {
	roleSelect := widget.NewRadioGroup([]string{config.RoleMaster, config.RoleSlave}, nil)
	roleSelect.Horizontal = true
	roleSelect.SetSelected(state.cfg.Mock.Role)

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.Noise))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.Period.Std().String())

	tickEntry := widget.NewEntry()
	tickEntry.SetText(state.cfg.Mock.Tick.Std().String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Role", Widget: roleSelect},
			{Text: "Noise (counts)", Widget: noiseEntry},
			{Text: "Sweep Period", Widget: periodEntry},
			{Text: "Loop Tick", Widget: tickEntry},
		},
		OnSubmit: func() {
			if roleSelect.Selected != "" {
				state.cfg.Mock.Role = roleSelect.Selected
			}
			if n, err := strconv.ParseFloat(noiseEntry.Text, 32); err == nil && n >= 0 {
				state.cfg.Mock.Noise = float32(n)
			}
			if p, err := time.ParseDuration(periodEntry.Text); err == nil && p > 0 {
				state.cfg.Mock.Period = config.Duration(p)
			}
			if tk, err := time.ParseDuration(tickEntry.Text); err == nil && tk > 0 {
				state.cfg.Mock.Tick = config.Duration(tk)
			}
			saveConfig(state)
			if state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
