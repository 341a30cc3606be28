// cmd/rps/main.go
package main

import (
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}
