package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

const (
	maxBarWidth = 60
	barPadding  = 24
)

// Progress receives scan progress. Update may be called from any
// goroutine.
type Progress interface {
	Start()
	Update(done, total int)
	Stop()
}

// NewProgress returns a progress bar on f when f is a terminal and a
// silent Progress otherwise.
func NewProgress(f *os.File, label string) Progress {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return NewBar(f, label)
	}
	return Nop{}
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start()          {}
func (Nop) Update(int, int) {}
func (Nop) Stop()           {}

type progressMsg struct {
	done, total int
}

type stopMsg struct{}

// barModel is the bubbletea model behind Bar.
type barModel struct {
	bar      progress.Model
	label    string
	done     int
	total    int
	quitting bool
}

func newBarModel(label string) barModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = maxBarWidth - barPadding
	return barModel{bar: bar, label: label}
}

func (m barModel) Init() tea.Cmd {
	return nil
}

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done, m.total = msg.done, msg.total
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-barPadding-len(m.label), maxBarWidth)
		if m.bar.Width < 10 {
			m.bar.Width = 10
		}
	case stopMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m barModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	p := float64(m.done) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

func (m barModel) View() string {
	if m.quitting {
		return ""
	}
	return LabelStyle.Render(m.label) + " " +
		m.bar.ViewAs(m.percent()) + " " +
		CounterStyle.Render(fmt.Sprintf("%d/%d", m.done, m.total))
}

// Bar draws a progress bar with a bubbletea program.
type Bar struct {
	program *tea.Program
	once    sync.Once
	stopped sync.Once
	done    chan struct{}
}

// NewBar creates a progress bar that renders to w.
func NewBar(w io.Writer, label string) *Bar {
	return &Bar{
		program: tea.NewProgram(
			newBarModel(label),
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
}

// Start runs the program in the background.
func (b *Bar) Start() {
	b.once.Do(func() {
		go func() {
			defer close(b.done)
			_, _ = b.program.Run()
		}()
	})
}

func (b *Bar) Update(done, total int) {
	b.program.Send(progressMsg{done: done, total: total})
}

// Stop clears the bar and waits for the program to exit.
func (b *Bar) Stop() {
	b.stopped.Do(func() {
		b.Start()
		b.program.Send(stopMsg{})
		<-b.done
	})
}
