package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goscope/pkg/acquire"
	"github.com/itohio/goscope/pkg/api"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/decoder"
	"github.com/itohio/goscope/pkg/logging"
	"github.com/itohio/goscope/pkg/scope"
	"github.com/itohio/goscope/pkg/transport"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated device instead of serial ports")
		formatFlag = flag.String("format", "", "Wire format override (csv or binary)")
		apiFlag    = flag.String("api", "", "Status API listen address override (e.g., :8080)")
		debugFlag  = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *formatFlag != "" {
		format, err := decoder.ParseFormat(*formatFlag)
		if err != nil {
			log.Fatalf("Invalid -format: %v", err)
		}
		cfg.Protocol.Format = string(format)
	}
	if *apiFlag != "" {
		cfg.API.Listen = *apiFlag
	}
	if *debugFlag {
		cfg.Log.Debug = true
	}

	logger, err := logging.New(cfg.Log.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	application := app.NewWithID("com.itohio.goscope")

	window := application.NewWindow("Simple Oscilloscope")
	window.Resize(fyne.NewSize(1000, 600))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		log:        logger,
		window:     window,
		useMock:    *mockFlag,
	}
	if err := state.rebuildMachine(); err != nil {
		log.Fatalf("Failed to create acquisition: %v", err)
	}

	if cfg.API.Listen != "" {
		state.api = api.New(logger)
		state.api.Start(cfg.API.Listen)
		defer state.api.Shutdown()
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg.PlotMax())

	content := container.NewBorder(
		toolbar,
		state.statusLabel,
		nil,
		nil,
		state.scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		state.stopTicker()
		state.machine.Close()
	})

	state.startTicker()
	state.refreshUI()
	window.ShowAndRun()
}

// appState holds the application state. Everything except the ticker
// goroutine runs on the Fyne main thread.
type appState struct {
	cfg         *config.Config
	configPath  string
	log         logging.Logger
	machine     *acquire.Machine
	api         *api.Server
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	portSelect  *widget.Select
	openBtn     *widget.Button
	reloadBtn   *widget.Button
	statusLabel *widget.Label
	useMock     bool

	view       acquire.View
	samplesBuf []float64
	portLabels []string
	syncing    bool // set while the port select is updated programmatically

	stop chan struct{}
}

// rebuildMachine creates a new state machine from the current configuration,
// dropping any running session.
func (s *appState) rebuildMachine() error {
	opts, err := acquire.OptionsFromConfig(s.cfg, s.log)
	if err != nil {
		return err
	}

	var tr transport.Transport
	if s.useMock {
		tr = transport.NewMock(&s.cfg.Mock, opts.Format, s.log)
		opts.PreferredPort = transport.MockPortName
	} else {
		tr = transport.NewSerial()
	}

	if s.machine != nil {
		s.machine.Close()
	}
	s.machine = acquire.New(tr, opts)
	return nil
}

// createToolbar creates the toolbar with port selection, Open, Reload and Settings.
func createToolbar(state *appState) fyne.CanvasObject {
	state.portSelect = widget.NewSelect(nil, func(selected string) {
		handleSelect(state, selected)
	})
	state.portSelect.PlaceHolder = "Serial port"

	state.openBtn = widget.NewButtonWithIcon("Open", theme.LoginIcon(), func() {
		handleOpen(state)
	})
	state.reloadBtn = widget.NewButtonWithIcon("Reload", theme.ViewRefreshIcon(), func() {
		handleReload(state)
	})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.statusLabel = widget.NewLabel("")

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(state.openBtn, state.reloadBtn, settingsBtn),
		nil,
		state.portSelect,
	)
}

func handleSelect(state *appState, selected string) {
	if state.syncing {
		return
	}
	for i, label := range state.portLabels {
		if label == selected {
			if err := state.machine.SelectPort(i); err != nil {
				state.log.Warnf("Failed to select %s: %v", selected, err)
			}
			break
		}
	}
	state.refreshUI()
}

func handleOpen(state *appState) {
	if err := state.machine.Open(); err == nil {
		state.log.Infof("Connected to %s", state.machine.View(nil).Port)
	}
	state.refreshUI()
}

func handleReload(state *appState) {
	state.machine.Reload()
	state.refreshUI()
}

// startTicker drives acquisition at the display refresh rate.
func (s *appState) startTicker() {
	s.stop = make(chan struct{})
	stop := s.stop
	interval := s.cfg.Display.Refresh

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fyne.Do(s.tick)
			}
		}
	}()
}

func (s *appState) stopTicker() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// tick runs one acquisition pass and redraws.
func (s *appState) tick() {
	wasReading := s.machine.State() == acquire.Reading
	if err := s.machine.Tick(); err != nil {
		s.log.Errorf("Acquisition stopped: %v", err)
	}
	if wasReading || s.machine.State() == acquire.Reading {
		s.refreshUI()
	}
}

// refreshUI renders the current machine state into the widgets.
func (s *appState) refreshUI() {
	s.view = s.machine.View(s.samplesBuf)
	s.samplesBuf = s.view.Samples
	v := &s.view

	if s.api != nil {
		s.api.Publish(s.view)
	}

	s.updatePortSelect(v)
	s.statusLabel.SetText(statusText(v))
	if s.scopeWidget != nil {
		s.scopeWidget.UpdateView(v)
	}
}

func (s *appState) updatePortSelect(v *acquire.View) {
	labels := make([]string, 0, len(v.Ports))
	for _, p := range v.Ports {
		labels = append(labels, p.Label())
	}
	s.portLabels = labels

	s.syncing = true
	defer func() { s.syncing = false }()

	s.portSelect.SetOptions(labels)
	if v.Selected < len(labels) {
		s.portSelect.SetSelected(labels[v.Selected])
	} else {
		s.portSelect.ClearSelected()
	}

	if v.State == acquire.Reading {
		s.portSelect.Disable()
		s.openBtn.Disable()
	} else {
		s.portSelect.Enable()
		if len(labels) > 0 {
			s.openBtn.Enable()
		} else {
			s.openBtn.Disable()
		}
	}
}

// statusText describes the state in one line.
func statusText(v *acquire.View) string {
	switch v.State {
	case acquire.Reading:
		text := fmt.Sprintf("Reading %s (%s)   %d samples/s   %s", v.Port, v.Format, v.Rate, v.Elapsed.Round(time.Second))
		if v.Stats.Unrecognized > 0 || v.Stats.Overflows > 0 {
			text += fmt.Sprintf("   %d unrecognized bytes, %d dropped frames", v.Stats.Unrecognized, v.Stats.Overflows)
		}
		return text
	default:
		switch {
		case v.PortsErr != nil:
			return fmt.Sprintf("Error obtaining serial ports: %v", v.PortsErr)
		case v.NoDevice():
			return "No serial ports available (Is the Arduino plugged in correctly?)"
		case v.LastErr != nil:
			return v.LastErr.Error()
		default:
			return "Select a port and press Open"
		}
	}
}
