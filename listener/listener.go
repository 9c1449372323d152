// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package listener implements the dispatch layer of §4.9: a Listener binds
// an action map (frameset type -> handler) to an event source and routes
// each arriving frameset to whichever action claims its type, logging and
// dropping anything nobody claimed. AuthListener adds a sender-authentication
// policy hook in front of that dispatch.
package listener

import (
	"github.com/sirupsen/logrus"

	"github.com/assimilation/assimilation-official-sub001/frameset"
	"github.com/assimilation/assimilation-official-sub001/netaddr"
)

// Action handles one frameset type as it arrives from endpoint on queueID.
type Action func(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16)

// Listener dispatches decoded framesets to per-type Actions. It is driven
// by whatever hands it framesets — directly from netio, or, when reliable
// delivery matters, from a transport.FsProtocol's Deliver callback.
type Listener struct {
	actions map[uint16]Action
	autoAck bool
	log     *logrus.Entry
}

// New returns a Listener with no registered actions. autoAck is stored on
// the Listener, but Dispatch sends no acknowledgement whatever its value;
// transport.FsProtocol acknowledges every sequenced frameset it delivers,
// independent of this setting.
func New(autoAck bool, log *logrus.Entry) *Listener {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Listener{
		actions: make(map[uint16]Action),
		autoAck: autoAck,
		log:     log.WithField("component", "listener"),
	}
}

// AddAction registers action as the handler for framesets of type msgType,
// replacing any prior registration.
func (l *Listener) AddAction(msgType uint16, action Action) {
	l.actions[msgType] = action
}

// RemoveAction unregisters the handler for msgType, if any.
func (l *Listener) RemoveAction(msgType uint16) {
	delete(l.actions, msgType)
}

// Dispatch routes fs to its registered action. A type with no registered
// action is logged at WARN and dropped — it is never an error, since
// unrecognized message types are expected when peers run a newer protocol
// version.
func (l *Listener) Dispatch(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16) {
	action, ok := l.actions[fs.Type]
	if !ok {
		l.log.WithFields(logrus.Fields{
			"peer": from.String(),
			"type": fs.Type,
		}).Warn("no action registered for frameset type")
		return
	}
	action(fs, from, queueID)
}

// AuthPolicy decides whether a frameset from a given sender, authenticated
// (or not) by the given key identity, is acceptable. keyID is empty when
// the frameset carried no signature.
type AuthPolicy func(from netaddr.NetAddr, fs *frameset.FrameSet, keyID string) bool

// AuthListener wraps a Listener with a mandatory authentication check: a
// frameset is dispatched only if its policy approves the sender, per the
// "authenticate sender" requirement of §4.9. A frameset's signing key_id
// is supplied by the caller (PacketDecoder.Decode returns only framesets,
// not the key that verified them; AuthListener does not verify signatures
// itself).
type AuthListener struct {
	*Listener
	policy AuthPolicy
	log    *logrus.Entry
}

// NewAuth returns an AuthListener applying policy before every dispatch.
// A nil policy rejects everything, which is the safe default for a
// construction error rather than an accidental open listener.
func NewAuth(autoAck bool, policy AuthPolicy, log *logrus.Entry) *AuthListener {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &AuthListener{
		Listener: New(autoAck, log),
		policy:   policy,
		log:      log.WithField("component", "auth_listener"),
	}
}

// DispatchAuth checks policy before handing fs to the underlying Listener.
// keyID is the identity the frameset's signature was verified against, or
// "" if unsigned.
func (l *AuthListener) DispatchAuth(fs *frameset.FrameSet, from netaddr.NetAddr, queueID uint16, keyID string) {
	if l.policy == nil || !l.policy(from, fs, keyID) {
		l.log.WithFields(logrus.Fields{
			"peer": from.String(),
			"type": fs.Type,
			"key":  keyID,
		}).Warn("rejected frameset: sender not authorized")
		return
	}
	l.Dispatch(fs, from, queueID)
}
