//go:build darwin

package tray

import "golang.design/x/hotkey/mainthread"

func runOnMain(fn func()) {
	done := make(chan struct{})
	mainthread.Call(func() {
		fn()
		close(done)
	})
	<-done
}
