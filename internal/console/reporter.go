package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
)

// Reporter writes human-readable bridge progress
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	styled bool
	width  int
}

// New creates a reporter on stdout and stderr, styled when stdout is a terminal
func New() *Reporter {
	return &Reporter{
		out:    os.Stdout,
		errOut: os.Stderr,
		styled: IsTerminal(os.Stdout),
		width:  TerminalWidth(os.Stdout),
	}
}

// NewPlain creates an unstyled reporter on arbitrary writers
func NewPlain(out, errOut io.Writer) *Reporter {
	return &Reporter{
		out:    out,
		errOut: errOut,
		width:  MinTerminalWidth,
	}
}

func (r *Reporter) render(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func (r *Reporter) println(w io.Writer, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(w, line)
}

// Banner prints the startup summary
func (r *Reporter) Banner(title string, params [][2]string) {
	if !r.styled {
		var b strings.Builder
		b.WriteString(title)
		for _, p := range params {
			fmt.Fprintf(&b, "\n  %s: %s", p[0], p[1])
		}
		r.println(r.out, b.String())
		return
	}

	lines := []string{BannerTitleStyle.Render(strings.ToUpper(title)), ""}
	for _, p := range params {
		lines = append(lines, BannerParamKeyStyle.Render(p[0]+":")+BannerParamValueStyle.Render(p[1]))
	}
	r.println(r.out, BannerBorderStyle(r.width).Render(strings.Join(lines, "\n")))
}

// Status prints a neutral progress line
func (r *Reporter) Status(format string, args ...any) {
	r.println(r.out, r.render(StatusStyle, fmt.Sprintf(format, args...)))
}

// Attempting implements discovery.Observer
func (r *Reporter) Attempting(strategy string) {
	if strategy == "manual" {
		return
	}
	r.Status("Discovering Nova via %s...", strategy)
}

// Failed implements discovery.Observer
func (r *Reporter) Failed(strategy string, err error, next string) {
	msg := fmt.Sprintf("%s discovery failed (%v)", strategy, err)
	if next != "" {
		msg += fmt.Sprintf(", trying %s...", next)
	}
	r.println(r.errOut, r.render(WarningStyle, msg))
}

// Resolved implements discovery.Observer
func (r *Reporter) Resolved(strategy string, endpoint discovery.Endpoint) {
	if strategy == "manual" {
		return
	}
	r.println(r.out, r.render(SuccessStyle, fmt.Sprintf("%s Found Nova via %s at %s", SuccessMarker, strategy, endpoint)))
}

// Connecting reports a dial attempt
func (r *Reporter) Connecting(endpoint discovery.Endpoint) {
	r.Status("Connecting to Nova OpenAPI at %s", endpoint)
}

// Connected reports a successful dial
func (r *Reporter) Connected(endpoint discovery.Endpoint) {
	r.println(r.out, r.render(SuccessStyle, fmt.Sprintf("%s Connected to %s. Waiting for shots...", SuccessMarker, endpoint)))
}

// ConnectionError reports a resolution, connect or stream failure
func (r *Reporter) ConnectionError(err error) {
	var line string
	switch {
	case bridgeerr.IsConnect(err):
		line = fmt.Sprintf("%s Failed to connect: %s", FailureMarker, bridgeerr.ShortMessage(err))
	case bridgeerr.IsStream(err):
		line = fmt.Sprintf("%s Connection dropped: %s", FailureMarker, bridgeerr.ShortMessage(err))
	default:
		line = fmt.Sprintf("%s %v", FailureMarker, err)
	}
	r.println(r.errOut, r.render(ErrorStyle, line))

	if bridgeerr.IsResolution(err) {
		r.println(r.errOut, r.render(MutedStyle, bridgeerr.Hint(err)))
	}
}

// ShotError reports a dropped shot together with the raw device line
func (r *Reporter) ShotError(err error, raw string) {
	line := fmt.Sprintf("%s Failed to process shot: %v", FailureMarker, err)
	if raw != "" {
		line += " | raw=" + r.render(MutedStyle, raw)
	}
	r.println(r.errOut, r.render(ErrorStyle, line))
}

// ShotProcessed reports one published result
func (r *Reporter) ShotProcessed(result []byte) {
	r.println(r.out, r.render(ShotLabelStyle, ShotMarker+" Processed shot ->")+" "+string(result))
}

// Retrying announces the reconnect delay
func (r *Reporter) Retrying(delay time.Duration) {
	r.println(r.out, r.render(WarningStyle, fmt.Sprintf("%s Retrying in %s...", RetryMarker, formatDelay(delay))))
}

// formatDelay prints whole seconds as "3s" and anything else with Go duration syntax
func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
