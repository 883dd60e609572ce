package termplay

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Protocol selects which terminal output encoding a sink speaks.
type Protocol int

const (
	Auto Protocol = iota
	Halfblocks
	Sixel
	Kitty
	ITerm2
)

func (p Protocol) String() string {
	switch p {
	case Auto:
		return "auto"
	case Halfblocks:
		return "halfblocks"
	case Sixel:
		return "sixel"
	case Kitty:
		return "kitty"
	case ITerm2:
		return "iterm2"
	}
	return fmt.Sprintf("Protocol(%d)", int(p))
}

// ParseProtocol maps a --protocol flag value to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return Auto, nil
	case "halfblocks", "blocks":
		return Halfblocks, nil
	case "sixel":
		return Sixel, nil
	case "kitty":
		return Kitty, nil
	case "iterm2", "iterm":
		return ITerm2, nil
	}
	return Auto, fmt.Errorf("unknown protocol %q", s)
}

// DetectProtocol picks the best protocol the terminal is likely to support.
// Halfblocks always work, so they are the floor, not a failure.
func DetectProtocol() Protocol {
	switch {
	case kittySupported():
		return Kitty
	case iterm2Supported():
		return ITerm2
	case sixelSupported():
		return Sixel
	}
	return Halfblocks
}

// NewSink builds the sink for the chosen protocol, resolving Auto first.
func NewSink(protocol Protocol, out io.Writer, dither bool) (Sink, error) {
	if protocol == Auto {
		protocol = DetectProtocol()
	}
	switch protocol {
	case Halfblocks:
		return NewHalfblocksSink(out, dither), nil
	case Sixel:
		return NewSixelSink(out), nil
	case Kitty:
		return NewKittySink(out), nil
	case ITerm2:
		return NewITerm2Sink(out), nil
	}
	return nil, fmt.Errorf("unsupported protocol: %s", protocol)
}

func kittySupported() bool {
	switch {
	case os.Getenv("KITTY_WINDOW_ID") != "":
		return true
	case strings.Contains(strings.ToLower(os.Getenv("TERM")), "kitty"):
		return true
	case os.Getenv("TERM_PROGRAM") == "ghostty":
		return true
	case os.Getenv("TERM_PROGRAM") == "WezTerm":
		return true
	}
	return false
}

func iterm2Supported() bool {
	switch {
	case os.Getenv("LC_TERMINAL") == "iTerm2":
		return true
	case os.Getenv("TERM_PROGRAM") == "iTerm.app":
		return true
	case os.Getenv("TERM_PROGRAM") == "vscode":
		return true
	case os.Getenv("TERM") == "mintty":
		return true
	}
	return false
}

func sixelSupported() bool {
	termEnv := os.Getenv("TERM")
	switch {
	case strings.Contains(termEnv, "sixel"):
		return true
	case strings.Contains(termEnv, "mlterm"):
		return true
	case strings.Contains(termEnv, "foot"):
		return true
	case strings.Contains(termEnv, "yaft"):
		return true
	case strings.Contains(termEnv, "xterm") && os.Getenv("XTERM_VERSION") != "":
		// xterm needs to be started with -ti 340.
		return true
	}
	return strings.Contains(os.Getenv("TERM_PROGRAM"), "mlterm")
}

// inTmux reports whether output goes through tmux and escape sequences for
// graphics protocols need passthrough wrapping.
func inTmux() bool {
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// wrapTmuxPassthrough wraps an escape sequence so tmux forwards it to the
// outer terminal. Every ESC inside the sequence must be doubled.
func wrapTmuxPassthrough(seq string) string {
	if !inTmux() || !strings.HasPrefix(seq, "\x1b") {
		return seq
	}
	return "\x1bPtmux;\x1b" + strings.ReplaceAll(seq, "\x1b", "\x1b\x1b") + "\x1b\\"
}
