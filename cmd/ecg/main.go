package main

import (
	"log"

	"ecg-pomodoro/cmd"
	"ecg-pomodoro/internal/api"
	"ecg-pomodoro/internal/config"
)

func main() {
	log.Println("Starting ECG service...")

	cmd.LoadEnvFile()

	cfg, err := config.Load[config.EcgConfig]()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	m := cmd.NewMetrics(cfg.ServerConfig, "ecg")
	r := cmd.NewRouter(cfg.ServerConfig, m)

	api.NewEcgService(m).AddRoutes(r)

	cmd.RunServer("ECG service", cfg.Port, r)
}
