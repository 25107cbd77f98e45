package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"go.aimuz.me/voxtype/internal/app"
	"go.aimuz.me/voxtype/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/trayicon.png
var trayIconBytes []byte

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logging.Setup(os.Getenv("VOXTYPE_LOG_LEVEL"), os.Stderr)
	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	appService := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "Voxtype",
		Description: "Streaming dictation from the system tray",
		Services: []application.Service{
			application.NewService(appService),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Don't quit when all windows are closed (we have a system tray)
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	// Settings window, hidden until opened from the tray
	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "Voxtype",
		Width:  560,
		Height: 720,
		URL:    "/",
		Hidden: true,
	})

	// Intercept window close: hide instead of destroy so tray can reopen
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		mainWindow.Hide()
	})

	// Initialize service with app and window references
	appService.Init(wailsApp, mainWindow)

	systemTray := wailsApp.SystemTray.New()
	systemTray.SetIcon(trayIconBytes)
	systemTray.SetTooltip("Voxtype: double-tap Alt to dictate")

	trayMenu := wailsApp.NewMenu()
	trayMenu.Add("Start / stop dictation").OnClick(func(ctx *application.Context) {
		if err := appService.ToggleRecording(); err != nil {
			slog.Error("toggle from tray", "error", err)
		}
	})
	trayMenu.Add("Settings").OnClick(func(ctx *application.Context) {
		appService.ShowWindow()
	})

	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			appService.Shutdown()
			wailsApp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
