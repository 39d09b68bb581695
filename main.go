// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/msbuildtask/msbuildtask/cmd/msbuildtask"

func main() {
	cmd.Execute()
}
