package main

import (
	"os"

	"github.com/omero-admin/omero-auth/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
