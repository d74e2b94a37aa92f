package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goscope/pkg/acquire"
	"github.com/itohio/goscope/pkg/config"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createProtocolTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(500, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

// applySettings validates and saves the configuration, then rebuilds the
// acquisition so the next Open uses it. A running session is closed.
func applySettings(state *appState, next *config.Config) {
	if err := next.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}

	prev := *state.cfg
	*state.cfg = *next
	if err := state.rebuildMachine(); err != nil {
		*state.cfg = prev
		dialog.ShowError(err, state.window)
		return
	}

	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}

	state.scopeWidget.SetRange(0, state.cfg.PlotMax())
	state.refreshUI()
}

// parityDefault is the select entry for an unset parity.
const parityDefault = "default"

// parityOption maps a configured parity to its select entry.
func parityOption(parity string) string {
	if parity == "" {
		return parityDefault
	}
	return parity
}

// parityValue maps a select entry back to the configured parity.
func parityValue(option string) string {
	if option == parityDefault {
		return ""
	}
	return option
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	dataBitsSelect := widget.NewSelect([]string{"5", "6", "7", "8"}, nil)
	dataBitsSelect.SetSelected(strconv.Itoa(state.cfg.Serial.DataBits))

	paritySelect := widget.NewSelect([]string{parityDefault, "none", "odd", "even", "mark", "space"}, nil)
	paritySelect.SetSelected(parityOption(state.cfg.Serial.Parity))

	stopBitsSelect := widget.NewSelect([]string{"1", "1.5", "2"}, nil)
	stopBitsSelect.SetSelected(state.cfg.Serial.StopBits)

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Serial.ReadTimeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "Data Bits", Widget: dataBitsSelect},
			{Text: "Parity", Widget: paritySelect},
			{Text: "Stop Bits", Widget: stopBitsSelect},
			{Text: "Read Timeout", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			next := *state.cfg
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil {
				next.Serial.BaudRate = baud
			}
			if bits, err := strconv.Atoi(dataBitsSelect.Selected); err == nil {
				next.Serial.DataBits = bits
			}
			next.Serial.Parity = parityValue(paritySelect.Selected)
			next.Serial.StopBits = stopBitsSelect.Selected
			if timeout, err := time.ParseDuration(timeoutEntry.Text); err == nil {
				next.Serial.ReadTimeout = timeout
			}
			applySettings(state, &next)
		},
	}

	return container.NewTabItem("Serial", form)
}

// createProtocolTab creates the wire format and buffer configuration tab.
func createProtocolTab(state *appState) *container.TabItem {
	formatSelect := widget.NewSelect([]string{config.FormatCSV, config.FormatBinary}, nil)
	formatSelect.SetSelected(state.cfg.Protocol.Format)

	delimiterEntry := widget.NewEntry()
	delimiterEntry.SetText(state.cfg.Protocol.Delimiter)

	adcRangeEntry := widget.NewEntry()
	adcRangeEntry.SetText(strconv.Itoa(state.cfg.Protocol.ADCRange))

	maxPhysicalEntry := widget.NewEntry()
	maxPhysicalEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Protocol.MaxPhysical))

	samplesEntry := widget.NewEntry()
	samplesEntry.SetText(strconv.Itoa(state.cfg.Buffer.Samples))

	windowEntry := widget.NewEntry()
	windowEntry.SetText(strconv.Itoa(state.cfg.Buffer.ReadWindow))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Format", Widget: formatSelect},
			{Text: "Delimiter (csv)", Widget: delimiterEntry},
			{Text: "ADC Range (binary)", Widget: adcRangeEntry},
			{Text: "Max Physical (binary)", Widget: maxPhysicalEntry},
			{Text: "History Samples", Widget: samplesEntry},
			{Text: "Read Window (bytes)", Widget: windowEntry},
		},
		OnSubmit: func() {
			next := *state.cfg
			next.Protocol.Format = formatSelect.Selected
			next.Protocol.Delimiter = delimiterEntry.Text
			if r, err := strconv.Atoi(adcRangeEntry.Text); err == nil {
				next.Protocol.ADCRange = r
			}
			if mp, err := strconv.ParseFloat(maxPhysicalEntry.Text, 64); err == nil {
				next.Protocol.MaxPhysical = mp
			}
			if n, err := strconv.Atoi(samplesEntry.Text); err == nil {
				next.Buffer.Samples = n
			}
			if n, err := strconv.Atoi(windowEntry.Text); err == nil {
				next.Buffer.ReadWindow = n
			}
			if state.machine.State() == acquire.Reading {
				state.log.Infof("Settings changed, closing %s", state.machine.View(nil).Port)
			}
			applySettings(state, &next)
		},
	}

	return container.NewTabItem("Protocol", form)
}

// createMockTab creates the simulated device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	frequencyEntry := widget.NewEntry()
	frequencyEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Frequency))

	amplitudeEntry := widget.NewEntry()
	amplitudeEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.Amplitude))

	offsetEntry := widget.NewEntry()
	offsetEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.Offset))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.Noise))

	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Frequency (Hz)", Widget: frequencyEntry},
			{Text: "Amplitude (counts)", Widget: amplitudeEntry},
			{Text: "Offset (counts)", Widget: offsetEntry},
			{Text: "Noise (counts)", Widget: noiseEntry},
			{Text: "Sample Interval", Widget: sampleRateEntry},
		},
		OnSubmit: func() {
			next := *state.cfg
			if f, err := strconv.ParseFloat(frequencyEntry.Text, 64); err == nil {
				next.Mock.Frequency = f
			}
			if a, err := strconv.ParseFloat(amplitudeEntry.Text, 64); err == nil {
				next.Mock.Amplitude = a
			}
			if o, err := strconv.ParseFloat(offsetEntry.Text, 64); err == nil {
				next.Mock.Offset = o
			}
			if n, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				next.Mock.Noise = n
			}
			if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
				next.Mock.SampleRate = sr
			}
			applySettings(state, &next)
		},
	}

	return container.NewTabItem("Mock", form)
}
