package main

import (
	"fmt"
	"os"

	"github.com/blockedby/megamd/internal/config"
)

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{config.DefaultSettingsFile}
	}

	failed := false
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			fmt.Printf("❌ Failed to read %s: %v\n", path, err)
			failed = true
			continue
		}

		s, err := config.LoadSettings(path)
		if err != nil {
			fmt.Printf("❌ Invalid settings in %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("✅ %s is valid (prefix=%q, newsletter=%q)\n", path, s.CommandPrefix, s.NewsletterName)
	}

	if failed {
		os.Exit(1)
	}
}
