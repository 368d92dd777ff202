package controller

import (
	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/native"
)

// AudioPort is the local system volume surface used by the absolute
// volume handshake. Volumes are in the AVRCP domain, 0 to 127.
type AudioPort interface {
	// SetVolume applies a remote-requested volume locally.
	SetVolume(volume byte)

	// Volume returns the current local volume.
	Volume() byte

	// RegisterObserver installs the local volume change observer.
	// At most one observer is installed at a time.
	RegisterObserver(observe func(volume byte))

	// UnregisterObserver removes the installed observer.
	UnregisterObserver()
}

// handleSetAbsVolume applies the remote's requested volume locally and
// acknowledges it. Applying the volume echoes back through the local
// observer; the DEFER flag absorbs exactly that one echo so it is not
// reported back as a fresh local change.
func (s *StateMachine) handleSetAbsVolume(dev *RemoteDevice, cb native.SetAbsVolumeCommand) {
	if s.audio == nil {
		return
	}

	dev.volState = volDefer
	s.audio.SetVolume(cb.Volume)

	if err := s.transport.SendAbsVolRsp(dev.Address, cb.Volume, cb.Label); err != nil {
		s.log.Warn("cannot acknowledge absolute volume",
			zap.String("address", dev.Address), zap.Error(err))
	}
}

// handleRegisterAbsVolNotification arms the volume notification: the
// label is retained for the eventual changed response, a local
// observer is installed, and an interim response with the current
// volume completes the registration.
func (s *StateMachine) handleRegisterAbsVolNotification(dev *RemoteDevice, cb native.RegisterAbsVolNotification) {
	if s.audio == nil {
		return
	}

	dev.volLabel = cb.Label
	dev.volState = volSend

	if !dev.volObserverSet {
		address := dev.Address
		s.audio.RegisterObserver(func(volume byte) {
			s.post(localVolumeChanged{address: address, volume: volume})
		})
		dev.volObserverSet = true
	}

	if err := s.transport.SendRegisterAbsVolRsp(dev.Address, s.audio.Volume(), cb.Label); err != nil {
		s.log.Warn("cannot register absolute volume notification",
			zap.String("address", dev.Address), zap.Error(err))
	}
}

// handleLocalVolumeChanged completes the armed volume notification for
// a genuine local change. A change observed while deferred is the echo
// of the remote's own SetAbsVolume and is swallowed, flipping the flag
// back so the next change is reported.
func (s *StateMachine) handleLocalVolumeChanged(address string, volume byte) {
	dev, ok := s.device(address)
	if !ok {
		return
	}

	if dev.volState == volDefer {
		dev.volState = volSend
		return
	}

	if err := s.transport.SendRegisterAbsVolRsp(address, volume, dev.volLabel); err != nil {
		s.log.Warn("cannot report volume change",
			zap.String("address", address), zap.Error(err))
	}
}
