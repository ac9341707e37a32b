// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/urdfc/urdfc/cmd/urdfc"

func main() {
	cmd.Execute()
}
