// Command hemosim runs the closed-loop hemodialysis simulation.
package main

import "github.com/sarchlab/hemosim/hemosim/cmd"

func main() {
	cmd.Execute()
}
