// Command purkinje-tracer tracks the pupil and the first and fourth Purkinje
// reflections in eye-camera frames.
package main

import (
	"log"

	"purkinje-tracer/cmd"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cmd.Execute()
}
