//go:build !linux

package casos

import "os"

func adviseSequential(*os.File) {}
