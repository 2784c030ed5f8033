package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	if len(os.Args) > 1 {
		var err error
		switch os.Args[1] {
		case "--version", "version":
			fmt.Printf("mediafetch %s\n", Version)
			return
		case "install":
			err = runInstall(os.Args[2:])
		case "info":
			err = runInfo(os.Args[2:])
		case "download":
			err = runDownload(os.Args[2:])
		case "update":
			err = runUpdate(os.Args[2:])
		case "config":
			err = runConfig(os.Args[2:])
		case "--help", "-h", "help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printUsage()
}

func printUsage() {
	fmt.Println("mediafetch - install yt-dlp and ffmpeg, then fetch media with them")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mediafetch --version                      Show version information")
	fmt.Println("  mediafetch install [--dir DIR] [--token T] Install yt-dlp and ffmpeg")
	fmt.Println("  mediafetch info <url> [--json]            Show metadata and the best formats")
	fmt.Println("  mediafetch download <url> [options]       Download media")
	fmt.Println("  mediafetch update                         Update yt-dlp in place")
	fmt.Println("  mediafetch config                         Show the effective configuration")
	fmt.Println()
	fmt.Println("Run 'mediafetch <command> --help' for command options.")
}
