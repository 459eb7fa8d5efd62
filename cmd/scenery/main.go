// scenery loads OBJ, glTF and PBRT scenes into one canonical model and
// reports on, validates, previews or converts them.
//
// Usage:
//
//	scenery info model.glb
//	scenery validate a.obj b.pbrt
//	scenery preview model.obj            (interactive, in the terminal)
//	scenery preview model.obj --png out.png
//	scenery convert scene.pbrt scene.pbf
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		os.Exit(1)
	}
}
