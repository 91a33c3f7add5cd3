package glyphterm

import (
	"net/url"
	"strconv"
	"strings"
)

// cwdPrefix is the payload prefix of the shell-integration working
// directory report: ESC ] 633 ; CWD=<path> BEL
const cwdPrefix = "CWD="

func (p *Parser) handleOSC(b byte) {
	if b >= '0' && b <= '9' {
		if p.oscNumber.Len() >= maxOSCNumber {
			p.oscCmd = -1
			p.state = stateOSCString
			return
		}
		p.oscNumber.WriteByte(b)
		return
	}
	if b == ';' {
		cmd, err := strconv.Atoi(p.oscNumber.String())
		if err != nil {
			cmd = -1
		}
		p.oscCmd = cmd
		p.oscBuf.Reset()
		p.state = stateOSCString
		return
	}
	if b == 0x07 {
		p.state = stateGround
		return
	}
	if b == 0x1B {
		p.state = stateOSCEscape
		return
	}
	// Not a numbered OSC; swallow it until the terminator
	p.oscCmd = -1
	p.state = stateOSCString
}

func (p *Parser) handleOSCString(b byte) {
	switch b {
	case 0x07: // BEL terminates OSC
		p.executeOSC()
		p.state = stateGround
	case 0x1B: // ESC might start ST (ESC \)
		p.state = stateOSCEscape
	default:
		if p.oscBuf.Len() < maxOSCLength {
			p.oscBuf.WriteByte(b)
		}
	}
}

// executeOSC processes a complete OSC command
func (p *Parser) executeOSC() {
	args := p.oscBuf.String()
	p.oscBuf.Reset()

	switch p.oscCmd {
	case 0, 2: // Icon name and window title, window title
		p.emit(SetTitle{Title: args})
	case 7: // file://host/path working directory report
		if path, ok := parseFileURL(args); ok {
			p.emit(SetWorkingDirectory{Path: path})
		}
	case 633: // Shell integration; only the CWD property is tracked
		if strings.HasPrefix(args, cwdPrefix) {
			path := strings.TrimSpace(strings.TrimPrefix(args, cwdPrefix))
			if path != "" {
				p.emit(SetWorkingDirectory{Path: path})
			}
		}
	}
	p.oscCmd = -1
}

func parseFileURL(s string) (string, bool) {
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return u.Path, true
}
