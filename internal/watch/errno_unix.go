// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import "syscall"

// brokenErrnos are inotify/kqueue resource exhaustion errors. A watcher that
// hits one of them silently stops seeing changes.
var brokenErrnos = []syscall.Errno{
	syscall.ENOSPC, // fs.inotify.max_user_watches reached
	syscall.EMFILE,
	syscall.ENFILE,
}
