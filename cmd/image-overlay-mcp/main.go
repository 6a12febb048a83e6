package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/image-overlay-mcp/internal/config"
	"github.com/ironsheep/image-overlay-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("image-overlay-mcp - MCP server for image overlay and coordinate picking")
	fmt.Println()
	fmt.Println("Usage: image-overlay-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println("  --config, -c <path>  Load settings from a YAML file")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=<path>   Config file when --config is not given\n", config.EnvConfigPath)
	fmt.Printf("  %s=debug   Enable debug logging\n", config.EnvLogLevel)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	configPath := os.Getenv(config.EnvConfigPath)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-overlay-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "--config", "-c":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			configPath = os.Args[2]
		default:
			fmt.Fprintf(os.Stderr, "unknown option: %s\n\n", os.Args[1])
			usage()
			os.Exit(2)
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.LoadPath(configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.Debug() {
		log.Printf("Image Overlay MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		if configPath != "" {
			log.Printf("Loaded config from %s", configPath)
		}
	}

	server.Version = Version
	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
