// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/kongjun0320/zf-webpack/cmd/zfpack"

func main() {
	cmd.Execute()
}
