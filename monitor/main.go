package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/pipeline"
	"github.com/itohio/kbtelemetry/pkg/sample"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/scope"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
	"github.com/itohio/kbtelemetry/pkg/window"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated keyboard instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of frames to average (0 = disabled, overrides config)")
		recordFlag         = flag.String("record", "", "Record frames to this CSV file")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Display.AverageSamples = *averageSamplesFlag
	}
	if *recordFlag != "" {
		cfg.Record.Path = *recordFlag
	}

	application := app.NewWithID("com.itohio.kbtelemetry")

	mainWindow := application.NewWindow("Keyboard Telemetry")
	mainWindow.Resize(fyne.NewSize(1200, 700))
	mainWindow.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     mainWindow,
		useMock:    *mockFlag,
		visible:    [sampler.NumChannels]bool{true, true, true, true},
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg)

	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		state.scopeWidget,
	)

	mainWindow.SetContent(content)
	mainWindow.SetOnClosed(func() {
		state.chain.Close()
	})
	mainWindow.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      telemetry.Device
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	channelBtns [sampler.NumChannels]*widget.Button
	visible     [sampler.NumChannels]bool
	useMock     bool
	chain       *pipeline.Chain // nil if not connected
	history     *window.Window  // survives reconnects; nil until first connect

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with Connect and Settings on the left and
// one visibility toggle per channel on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("Connect", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	clearBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		handleClear(state)
	})

	channels := container.NewHBox()
	for ch := range sampler.NumChannels {
		btn := widget.NewButtonWithIcon("", theme.VisibilityIcon(), func() {
			handleChannelToggle(state, ch)
		})
		state.channelBtns[ch] = btn
		channels.Add(btn)
	}
	updateChannelButtons(state)

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn, clearBtn),
		channels,
		nil,
	)
}

// saveConfig writes the config back to the file it was loaded from.
func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// disconnect tears the chain down. Safe to call when not connected.
func disconnect(state *appState) {
	state.chain.Close()
	state.chain = nil
	state.device = nil
	state.connectBtn.SetText("Connect")
	state.connectBtn.SetIcon(theme.LoginIcon())
}

// handleClear drops the buffered history and blanks the scope.
func handleClear(state *appState) {
	if state.history != nil {
		state.history.Clear()
	}
	state.scopeWidget.UpdateData(nil, [sampler.NumChannels]window.Stats{})
}

// historyWindow returns the window shared by every chain, creating it and
// its throttled scope callback on first use.
func historyWindow(state *appState) *window.Window {
	if state.history != nil {
		return state.history
	}

	// Throttle scope updates to ~60 FPS
	const updateInterval = 16 * time.Millisecond
	w := window.New(state.cfg)
	w.OnUpdate(func(samples []sample.Sample, stats [sampler.NumChannels]window.Stats) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, stats)
		})
	})
	state.history = w
	return w
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		disconnect(state)
		if state.useMock {
			fmt.Println("Disconnected from simulated keyboard")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	var device telemetry.Device
	if state.useMock {
		device = telemetry.NewMock(state.cfg)
		fmt.Println("Using simulated keyboard")
	} else {
		device = telemetry.New(state.cfg.Serial.Port, state.cfg.Serial.Baud, telemetry.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated keyboard: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}

	chain, err := pipeline.Start(state.cfg, device, historyWindow(state))
	if err != nil {
		device.Close()
		dialog.ShowError(fmt.Errorf("failed to start recording: %w", err), state.window)
		return
	}

	state.device = device
	state.chain = chain
	state.connectBtn.SetText("Disconnect")
	state.connectBtn.SetIcon(theme.LogoutIcon())

	if state.useMock {
		fmt.Println("Connected to simulated keyboard")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}
}
