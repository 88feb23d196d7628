// cmd/rodcal-plot/main.go
package main

import (
	"rodcal/internal/appshell"
	"rodcal/internal/plotapp"
)

func main() {
	appshell.Main(plotapp.RunContext)
}
