// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq

// broadcast wakes every goroutine waiting on it, any number of times.
//
// Waiters capture wait() while holding the queue mutex, release the mutex,
// then receive from the captured channel. notify closes the current channel
// and installs a fresh one, so a waiter that captured the channel before
// notify can never miss the wakeup.
//
// All methods must be called with the owning queue's mutex held.
type broadcast struct {
	ch    chan struct{}
	armed bool // Some waiter captured ch since the last notify
}

func newBroadcast() broadcast {
	return broadcast{ch: make(chan struct{})}
}

func (b *broadcast) wait() <-chan struct{} {
	b.armed = true
	return b.ch
}

// notify is a no-op when nobody captured the current channel.
func (b *broadcast) notify() {
	if !b.armed {
		return
	}
	close(b.ch)
	b.ch = make(chan struct{})
	b.armed = false
}
