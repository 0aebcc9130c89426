package cli

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"time"

	"github.com/amterp/ra"

	"github.com/amterp/crack/internal/api"
)

func registerServe(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("serve")
	cmd.SetDescription("Start the local API for a browser UI")

	ctx.ServePort, _ = ra.NewInt("port").
		SetOptional(true).
		SetDefault(4545).
		SetShort("p").
		SetFlagOnly(true).
		SetUsage("Port to listen on (will try incrementally if in use)").
		Register(cmd)

	ctx.ServeNoOpen, _ = ra.NewBool("no-open").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Don't open browser automatically").
		Register(cmd)

	ctx.ServeUsed, _ = parent.RegisterCmd(cmd)
}

func runServe(port int, noOpen bool) {
	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	handler, err := api.NewHandler(&api.Services{
		Catalog:    app.Catalog,
		Inventory:  app.InventoryStore,
		Opening:    app.OpeningService,
		Shop:       app.ShopService,
		Collection: app.CollectionService,
	})
	if err != nil {
		Fatal(err)
	}

	// Find an available port starting from the requested one
	actualPort := findAvailablePort(port)
	server := api.NewServer(handler, actualPort, app.Paths.Root(), app.Logger)

	url := fmt.Sprintf("http://localhost:%d/api/v1/packs", actualPort)
	PrintSuccess("crack API running at %s", RenderURL(url))
	PrintInfo("Press Ctrl+C to stop")

	if !noOpen {
		openBrowser(url)
	}

	ctx, stop := signalContext()
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			Fatal(err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			Fatal(err)
		}
	}
}

// findAvailablePort tries ports starting from startPort until it finds one that's available.
func findAvailablePort(startPort int) int {
	maxAttempts := 100
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		if isPortAvailable(port) {
			return port
		}
	}
	// Let the server fail on the original port
	return startPort
}

// isPortAvailable checks if a port is available by attempting to listen on it.
func isPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}
