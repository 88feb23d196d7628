// cmd/rodcal/main.go
package main

import (
	"rodcal/internal/app"
	"rodcal/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
