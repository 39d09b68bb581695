// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// brokenErrnos are the ReadDirectoryChangesW failures after which no further
// events are delivered for the tree.
var brokenErrnos = []syscall.Errno{
	syscall.Errno(4), // ERROR_TOO_MANY_OPEN_FILES
	syscall.Errno(6), // ERROR_INVALID_HANDLE: the watched directory went away
	syscall.Errno(8), // ERROR_NOT_ENOUGH_MEMORY
}
