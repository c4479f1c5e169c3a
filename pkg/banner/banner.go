package banner

import (
	"fmt"

	"flanergide/pkg/config"
)

const banner = `
███████╗██╗      █████╗ ███╗   ██╗███████╗██████╗  ██████╗ ██╗██████╗ ███████╗
██╔════╝██║     ██╔══██╗████╗  ██║██╔════╝██╔══██╗██╔════╝ ██║██╔══██╗██╔════╝
█████╗  ██║     ███████║██╔██╗ ██║█████╗  ██████╔╝██║  ███╗██║██║  ██║█████╗
██╔══╝  ██║     ██╔══██║██║╚██╗██║██╔══╝  ██╔══██╗██║   ██║██║██║  ██║██╔══╝
██║     ███████╗██║  ██║██║ ╚████║███████╗██║  ██║╚██████╔╝██║██████╔╝███████╗
╚═╝     ╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚═╝╚═════╝ ╚══════╝
`

// PrintWithEff prints the startup banner with the effective runtime config
// so operators can verify what the server actually loaded.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Storage.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("Event DB:  %s\n", dbPath)
	if eff.Config != nil {
		fmt.Printf("Index:     %s\n", eff.Config.Storage.IndexPath)
		fmt.Printf("State:     %s\n", eff.Config.Storage.StateDir)
		fmt.Printf("Analysis:  %s\n", eff.Config.Storage.AnalysisDir)
	}
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	fmt.Printf("Config: %s\n", src)

	fmt.Println("\n== Examples ===================================================")
	fmt.Println("curl -X POST 'http://<host>:<port>/api/memory/store' -d '{\"kind\": \"captured_text\", \"data\": {\"text\": \"hello\"}}'")
	fmt.Println("curl -X POST 'http://<host>:<port>/api/memory/search' -d '{\"query\": \"hello\", \"k\": 5}'")

	fmt.Println("\n== Production? =================================================")
	if eff.Config != nil && eff.Config.Security.JWTSecret != "" {
		fmt.Println("- Auth: JWT enabled")
	} else {
		fmt.Println("- Auth: DISABLED (set security.jwt_secret before exposing the server)")
	}
	tlsOK := eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != ""
	if tlsOK {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if eff.Config != nil {
		fmt.Printf("- Summaries: %s\n", eff.Config.AI.Provider)
		fmt.Printf("- Embeddings: %s\n", eff.Config.AI.Embedding.Provider)
		if eff.Config.Blog.Enabled {
			fmt.Printf("- Blog refresh: enabled (cron=%s url=%s)\n", eff.Config.Blog.Schedule, eff.Config.Blog.URL)
		} else {
			fmt.Println("- Blog refresh: disabled")
		}
	}

	fmt.Println("\n== Logs: =================================================")
}
