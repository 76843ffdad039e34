package app

import "tempo/hal"

type command uint8

const (
	cmdNone command = iota
	cmdToggleRun
	cmdSeekBack
	cmdSeekForward
	cmdSeekHome
	cmdToggleDecoupling
	cmdSwapSource
	cmdFaster
	cmdSlower
	cmdReverse
	cmdQuit
)

// commandFor maps a key press to a command. Releases map to cmdNone.
func commandFor(ev hal.KeyEvent) command {
	if !ev.Press {
		return cmdNone
	}
	switch ev.Code {
	case hal.KeyLeft:
		return cmdSeekBack
	case hal.KeyRight:
		return cmdSeekForward
	case hal.KeyHome:
		return cmdSeekHome
	case hal.KeyTab:
		return cmdSwapSource
	case hal.KeyUp:
		return cmdFaster
	case hal.KeyDown:
		return cmdSlower
	case hal.KeyEscape:
		return cmdQuit
	}
	switch ev.Rune {
	case ' ':
		return cmdToggleRun
	case 'd', 'D':
		return cmdToggleDecoupling
	case '+', '=':
		return cmdFaster
	case '-', '_':
		return cmdSlower
	case 'r', 'R':
		return cmdReverse
	case 'q', 'Q':
		return cmdQuit
	}
	return cmdNone
}

func (s *session) drainInput() error {
	in := s.h.Input()
	if in == nil {
		return nil
	}
	kbd := in.Keyboard()
	if kbd == nil {
		return nil
	}
	ch := kbd.Events()
	for {
		select {
		case ev := <-ch:
			if err := s.apply(commandFor(ev)); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *session) apply(cmd command) error {
	c := s.clock
	switch cmd {
	case cmdToggleRun:
		if c.IsRunning() {
			c.Stop()
		} else {
			c.Start()
		}
	case cmdSeekBack:
		s.seek(c.CurrentTime() - seekStepMs)
	case cmdSeekForward:
		s.seek(c.CurrentTime() + seekStepMs)
	case cmdSeekHome:
		s.seek(-s.cfg.Clock.LeadInMs)
	case cmdToggleDecoupling:
		c.SetAllowDecoupling(!c.AllowDecoupling())
		s.log.Infof("decoupling %t", c.AllowDecoupling())
	case cmdSwapSource:
		s.swapSource()
	case cmdFaster:
		c.SetRate(c.Rate() * 2)
	case cmdSlower:
		c.SetRate(c.Rate() / 2)
	case cmdReverse:
		c.SetRate(-c.Rate())
	case cmdQuit:
		_ = s.closeSources()
		return ErrQuit
	}
	return nil
}
