package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

var rootCmd = &cobra.Command{
	Use:          "avatarctl",
	Short:        "Crop and render avatars from local image files",
	SilenceUsage: true,
}

func main() {
	zlog.Init()

	rootCmd.AddCommand(newCropCmd(), newRenderCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
