// Package display renders the dialysis simulation in a terminal. It keeps a
// rolling history of the regulated variables to draw trend lines and lets
// the user quit the whole process from the keyboard.
package display

import (
	"fmt"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/hemosim/dialysis"
)

const graphRows = 3

var blocks = []rune("▁▂▃▄▅▆▇█")

var (
	backgroundColor = tcell.NewRGBColor(0x9C, 0xE8, 0x23)
	textStyle       = tcell.StyleDefault.
			Background(backgroundColor).
			Foreground(tcell.ColorBlack)
)

// Screen is a dialysis.Display backed by a tcell screen.
type Screen struct {
	screen tcell.Screen
	events chan tcell.Event
	done   chan struct{}
	exit   func(code int)

	closeOnce sync.Once
	closed    bool

	pressure History
	flowRate History
	oxygen   History
}

// NewScreen opens the terminal. It fails when no terminal is available, in
// which case the simulation should run headless.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating terminal screen: %w", err)
	}

	return NewScreenWithTcell(s)
}

// NewScreenWithTcell wraps an existing tcell screen and initializes it.
func NewScreenWithTcell(s tcell.Screen) (*Screen, error) {
	err := s.Init()
	if err != nil {
		return nil, fmt.Errorf("initializing terminal screen: %w", err)
	}

	d := &Screen{
		screen: s,
		events: make(chan tcell.Event, 16),
		done:   make(chan struct{}),
		exit:   atexit.Exit,
	}

	s.SetStyle(textStyle)
	s.Clear()

	go d.pollEvents()

	return d, nil
}

// WithExitFunc replaces the function called when the user quits.
func (d *Screen) WithExitFunc(exit func(code int)) *Screen {
	d.exit = exit
	return d
}

func (d *Screen) pollEvents() {
	for {
		ev := d.screen.PollEvent()
		if ev == nil {
			return
		}

		select {
		case d.events <- ev:
		case <-d.done:
			return
		}
	}
}

// Show handles pending keyboard events and renders the snapshot. A quit
// request terminates the process without returning to the control loop.
func (d *Screen) Show(snapshot dialysis.CycleSnapshot) {
	if d.closed {
		return
	}

	if d.quitRequested() {
		d.Close()
		fmt.Fprintln(os.Stderr,
			"*** Display closed by user; exiting. ***")
		d.exit(0)

		return
	}

	d.pressure.Push(snapshot.Pressure)
	d.flowRate.Push(snapshot.FlowRate)
	d.oxygen.Push(snapshot.OxygenSaturation)

	d.draw(snapshot)
	d.screen.Show()
}

func (d *Screen) quitRequested() bool {
	for {
		select {
		case ev := <-d.events:
			if isQuit(ev) {
				return true
			}

			if _, ok := ev.(*tcell.EventResize); ok {
				d.screen.Sync()
			}
		default:
			return false
		}
	}
}

func isQuit(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}

	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return key.Rune() == 'q' || key.Rune() == 'Q'
	}

	return false
}

// WaitForDismiss shows a prompt and blocks until a key is pressed, then
// closes the screen.
func (d *Screen) WaitForDismiss() {
	if d.closed {
		return
	}

	_, height := d.screen.Size()
	d.puts(1, height-1, "Press any key to close the display")
	d.screen.Show()

	for ev := range d.events {
		if _, ok := ev.(*tcell.EventKey); ok {
			break
		}
	}

	d.Close()
}

// Close restores the terminal.
func (d *Screen) Close() {
	d.closeOnce.Do(func() {
		d.closed = true
		close(d.done)
		d.screen.Fini()
	})
}

func (d *Screen) draw(s dialysis.CycleSnapshot) {
	d.screen.Clear()

	mins := s.Sequence / (5 * 60)
	secs := float64(s.Sequence%(5*60)) / 5.0
	status := "       Nominal"
	if s.Leak {
		status = "LEAK DETECTED, halted"
	}

	y := 0
	d.puts(1, y, fmt.Sprintf("Elapsed time:%3d min %04.1f sec", mins, secs))
	y += 2

	y = d.section(y, &d.pressure, PressureRange,
		fmt.Sprintf("Blood pressure: %6.0f mmHg", s.Pressure),
		fmt.Sprintf("Ultrafilt. adj.: %+5.1f mL/h", s.UltrafiltrationAdjustment))
	y = d.section(y, &d.flowRate, FlowRateRange,
		fmt.Sprintf("Blood flow rate: %5.1f mL/min", s.FlowRate),
		fmt.Sprintf("Pump adjustment: %+5.1f mL/min", s.PumpAdjustment))
	y = d.section(y, &d.oxygen, OxygenSaturationRange,
		fmt.Sprintf("Blood O2 sat.:     %3.0f %%", s.OxygenSaturation),
		fmt.Sprintf("O2 adjustment:   %+5.1f L/min", s.OxygenAdjustment))

	d.puts(1, y, "Status: "+status)
}

func (d *Screen) section(
	y int,
	h *History,
	r Range,
	value, adjustment string,
) int {
	d.plot(y, h, r)
	y += graphRows

	d.puts(1, y, value)
	d.puts(1, y+1, adjustment)

	return y + 3
}

// plot draws one point per column, newest sample on the right.
func (d *Screen) plot(top int, h *History, r Range) {
	width, _ := d.screen.Size()
	width -= 2

	levels := graphRows * len(blocks)
	for i, v := range h.Last(width) {
		level := r.level(v, levels)
		row := top + graphRows - 1 - level/len(blocks)
		d.screen.SetContent(1+i, row, blocks[level%len(blocks)], nil, textStyle)
	}
}

func (d *Screen) puts(x, y int, str string) {
	for i, r := range []rune(str) {
		d.screen.SetContent(x+i, y, r, nil, textStyle)
	}
}
