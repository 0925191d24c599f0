package main

import (
	"context"
	"time"

	"github.com/matrixlab/pulse/config"
	"github.com/matrixlab/pulse/hub"
	"github.com/matrixlab/pulse/models"
	"github.com/matrixlab/pulse/routes"
	"github.com/matrixlab/pulse/services"
	"github.com/matrixlab/pulse/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}, &models.Notification{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	presence := hub.NewHub(utils.GetRedis(), utils.Sugar)
	go presence.Run(ctx)

	// Expired bans are cleared by this explicit sweep, never as a side effect
	// of a read.
	go runBanSweeper(ctx, services.NewModerationService(db))

	r := routes.SetupRouter(db, presence)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

func runBanSweeper(ctx context.Context, gate *services.ModerationService) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := gate.SweepExpiredBans(ctx); err != nil {
				utils.Sugar.Warnf("ban sweep failed: %v", err)
			} else if n > 0 {
				utils.Sugar.Infof("ban sweep cleared %d expired bans", n)
			}
		}
	}
}
